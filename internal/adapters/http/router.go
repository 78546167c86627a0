package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
	"github.com/rulevii/compliance-rag/internal/core/routing"
	"github.com/rulevii/compliance-rag/internal/observability/logging"
	"github.com/rulevii/compliance-rag/internal/observability/metrics"
)

const (
	serviceName  = "rag-api"
	maxJSONBytes = 1 << 20
)

// LawRouter is the keyword router exposed for route debugging.
type LawRouter interface {
	Route(text string) routing.LawCodeSet
	Prioritized(text string, limit int) []string
}

// Services groups the inbound ports served over HTTP. A nil service disables its endpoints.
type Services struct {
	Retriever ports.ContextRetriever
	Query     ports.QueryService
	Lookup    ports.LawLookup
	Ingest    ports.DocumentIngestor
	Documents ports.DocumentReader
	LawRouter LawRouter
}

type Router struct {
	cfg       config.Config
	svc       Services
	metrics   *metrics.HTTPServerMetrics
	validator *RequestValidator
	logger    *slog.Logger
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
	}
}

func WithValidator(v *RequestValidator) RouterOption {
	return func(rt *Router) {
		rt.validator = v
	}
}

func WithLogger(logger *slog.Logger) RouterOption {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func NewRouter(cfg config.Config, svc Services, opts ...RouterOption) *Router {
	rt := &Router{
		cfg:    cfg,
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/modes", rt.listModes)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	if rt.svc.Retriever != nil {
		mux.HandleFunc("POST /v1/rag/retrieve", rt.retrieve)
	}
	if rt.svc.Query != nil {
		mux.HandleFunc("POST /v1/rag/query", rt.queryRAG)
	}
	if rt.svc.Lookup != nil {
		mux.HandleFunc("POST /v1/rag/lookup", rt.lookup)
	}
	if rt.svc.LawRouter != nil {
		mux.HandleFunc("POST /v1/rag/route", rt.route)
	}
	if rt.svc.Ingest != nil {
		mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	}
	if rt.svc.Documents != nil {
		mux.HandleFunc("GET /v1/documents/{id}", rt.getDocumentByID)
	}

	var h http.Handler = mux
	h = validationMiddleware(rt.validator, h)
	h = backpressureMiddleware(h, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	h = rateLimitMiddleware(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, h)
	if rt.metrics != nil {
		h = rt.metrics.Middleware(serviceName, h)
	}
	h = accessLogMiddleware(rt.logger, h)
	return requestIDMiddleware(rt.logger, h)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listModes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": domain.DefaultMode,
		"modes":   domain.ModeProfiles(),
	})
}

type retrieveRequest struct {
	Query       string   `json:"query"`
	Mode        string   `json:"mode"`
	SourceTypes []string `json:"source_types"`
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	result, err := rt.svc.Retriever.Retrieve(r.Context(), domain.Query{
		Text:        req.Query,
		Mode:        req.Mode,
		SourceTypes: req.SourceTypes,
	})
	if err != nil {
		rt.writeError(w, r, "retrieve", err)
		return
	}
	rt.observeRAG("/v1/rag/retrieve", result.Mode.Name, len(result.Citations), time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

type queryRequest struct {
	Question    string   `json:"question"`
	Mode        string   `json:"mode"`
	SourceTypes []string `json:"source_types"`
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.svc.Query.Answer(r.Context(), domain.Query{
		Text:        req.Question,
		Mode:        req.Mode,
		SourceTypes: req.SourceTypes,
	})
	if err != nil {
		rt.writeError(w, r, "query", err)
		return
	}
	rt.observeRAG("/v1/rag/query", answer.Mode.Name, len(answer.Citations), time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

type textRequest struct {
	Query string `json:"query"`
}

func (rt *Router) lookup(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref, err := rt.svc.Lookup.Lookup(r.Context(), req.Query)
	if err != nil {
		rt.writeError(w, r, "lookup", err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordLookup(serviceName, ref.Relevance > 0)
	}
	writeJSON(w, http.StatusOK, ref)
}

func (rt *Router) route(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	limit := rt.cfg.RAGMaxRoutedLawCodes
	if limit <= 0 {
		limit = 4
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"law_codes":   rt.svc.LawRouter.Route(req.Query).Sorted(),
		"prioritized": rt.svc.LawRouter.Prioritized(req.Query, limit),
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := rt.cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > maxBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.svc.Ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		domain.DocumentMetadata{
			Source:       r.FormValue("source"),
			LawCode:      r.FormValue("law_code"),
			DocumentType: r.FormValue("document_type"),
		},
		file,
	)
	if err != nil {
		rt.writeError(w, r, "upload", err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.svc.Documents.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) observeRAG(endpoint, mode string, citations int, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordRAGObservation(serviceName, endpoint, citations, duration)
	rt.metrics.RecordRAGModeRequest(serviceName, endpoint, mode)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), rt.logger).Error("request failed", "operation", operation, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
