package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/routing"
	"github.com/rulevii/compliance-rag/internal/observability/metrics"
)

func TestRetrieveForwardsQueryAndReturnsResult(t *testing.T) {
	retriever := &retrieverFake{result: &domain.RetrievalResult{
		Citations: []domain.Citation{{
			Document: "RA 9514 IRR", Page: 3, Section: "SECTION 10.2.5.4", Similarity: 0.95,
			Content: "sprinklers", LawCode: "RA 9514",
		}},
		ContextText: "[HIGH RELEVANCE] [Source: RA 9514 IRR]",
		Mode:        domain.ResolveMode(domain.ModeCompliance),
		LawCodes:    []string{"RA 9514", "PD 1096"},
	}}
	handler := NewRouter(config.Config{}, Services{Retriever: retriever}).Handler()

	res := postJSON(t, handler, "/v1/rag/retrieve", map[string]any{
		"query":        "fire exit sprinkler spacing for coffee shop",
		"mode":         "compliance",
		"source_types": []string{"statutory"},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if retriever.got.Mode != "compliance" || len(retriever.got.SourceTypes) != 1 {
		t.Fatalf("query not forwarded: %+v", retriever.got)
	}

	var body domain.RetrievalResult
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Citations) != 1 || body.Citations[0].LawCode != "RA 9514" || body.Mode.Name != domain.ModeCompliance {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRetrieveRejectsBlankQuery(t *testing.T) {
	handler := newTestHandler(config.Config{})
	res := postJSON(t, handler, "/v1/rag/retrieve", map[string]any{"query": "   "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestLookupReturnsReference(t *testing.T) {
	handler := NewRouter(config.Config{}, Services{
		Lookup: lookupFake{ref: &domain.LawReference{Content: "Reference not found in the database.", Source: "System", Relevance: 0}},
	}).Handler()

	res := postJSON(t, handler, "/v1/rag/lookup", map[string]any{"query": "RA 0000"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var ref domain.LawReference
	if err := json.NewDecoder(res.Body).Decode(&ref); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ref.Source != "System" || ref.Relevance != 0 {
		t.Fatalf("unexpected reference: %+v", ref)
	}
}

func TestRouteReturnsLawCodes(t *testing.T) {
	handler := NewRouter(config.Config{RAGMaxRoutedLawCodes: 4}, Services{LawRouter: routing.NewDefaultRouter()}).Handler()

	res := postJSON(t, handler, "/v1/rag/route", map[string]any{"query": "fire exit sprinkler spacing for coffee shop"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		LawCodes    []string `json:"law_codes"`
		Prioritized []string `json:"prioritized"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !contains(body.LawCodes, "RA 9514") || !contains(body.LawCodes, "PD 1096") {
		t.Fatalf("expected fire and building codes, got %v", body.LawCodes)
	}
	if len(body.Prioritized) == 0 || len(body.Prioritized) > 4 {
		t.Fatalf("unexpected prioritized list %v", body.Prioritized)
	}
}

func TestModesListsProfiles(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/modes", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Default string               `json:"default"`
		Modes   []domain.ModeProfile `json:"modes"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Default != domain.ModeQuickAnswer || len(body.Modes) != 3 {
		t.Fatalf("unexpected modes body: %+v", body)
	}
}

func TestMetricsEndpointRecordsRetrieval(t *testing.T) {
	m := metrics.NewHTTPServerMetrics(serviceName)
	handler := newTestHandler(config.Config{}, WithMetrics(m))

	postJSON(t, handler, "/v1/rag/retrieve", map[string]any{"query": "parking for restaurant"})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `crag_rag_no_context_total{endpoint="/v1/rag/retrieve",service="rag-api"} 1`) {
		t.Fatalf("retrieval not recorded:\n%s", res.Body.String())
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
