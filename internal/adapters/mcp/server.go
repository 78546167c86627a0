// Package mcpadapter exposes the retrieval engine as MCP tools so assistants can cite building
// regulations directly.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
	"github.com/rulevii/compliance-rag/internal/core/routing"
)

const (
	ToolLookupLaw       = "lookup_law"
	ToolRetrieveContext = "retrieve_context"
	ToolRouteQuery      = "route_query"
)

type LawRouter interface {
	Route(text string) routing.LawCodeSet
	Prioritized(text string, limit int) []string
}

type Handlers struct {
	retriever     ports.ContextRetriever
	lookup        ports.LawLookup
	router        LawRouter
	maxRouteCodes int
	logger        *slog.Logger
}

func NewHandlers(retriever ports.ContextRetriever, lookup ports.LawLookup, router LawRouter, maxRouteCodes int, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRouteCodes <= 0 {
		maxRouteCodes = 4
	}
	return &Handlers{
		retriever:     retriever,
		lookup:        lookup,
		router:        router,
		maxRouteCodes: maxRouteCodes,
		logger:        logger,
	}
}

// NewServer registers the regulation tools on a new MCP server.
func NewServer(name, version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false), server.WithRecovery())

	s.AddTool(mcp.NewTool(ToolLookupLaw,
		mcp.WithDescription("Find the single best matching passage for a law or section citation, e.g. \"RA 9514 Section 10.2.5\"."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Law code, section or topic to look up.")),
	), h.LookupLaw)

	s.AddTool(mcp.NewTool(ToolRetrieveContext,
		mcp.WithDescription("Retrieve ranked citations and an assembled context block from the Philippine building regulation corpus."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Design or compliance question.")),
		mcp.WithString("mode", mcp.Description("quick_answer, compliance or plan_draft."), mcp.Enum(domain.ModeQuickAnswer, domain.ModeCompliance, domain.ModePlanDraft)),
		mcp.WithArray("source_types", mcp.Description("Restrict to document types."), mcp.Items(map[string]any{"type": "string"})),
	), h.RetrieveContext)

	s.AddTool(mcp.NewTool(ToolRouteQuery,
		mcp.WithDescription("Show which law codes the keyword router associates with a question."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Question to route.")),
	), h.RouteQuery)

	return s
}

func (h *Handlers) LookupLaw(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref, err := h.lookup.Lookup(ctx, query)
	if err != nil {
		return h.toolError(ToolLookupLaw, err), nil
	}
	return jsonResult(ref)
}

func (h *Handlers) RetrieveContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := h.retriever.Retrieve(ctx, domain.Query{
		Text:        query,
		Mode:        req.GetString("mode", ""),
		SourceTypes: req.GetStringSlice("source_types", nil),
	})
	if err != nil {
		return h.toolError(ToolRetrieveContext, err), nil
	}
	return jsonResult(result)
}

func (h *Handlers) RouteQuery(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"law_codes":   h.router.Route(query).Sorted(),
		"prioritized": h.router.Prioritized(query, h.maxRouteCodes),
	})
}

// toolError reports failures inside the tool result; protocol errors are reserved for transport.
func (h *Handlers) toolError(tool string, err error) *mcp.CallToolResult {
	h.logger.Warn("mcp tool failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
