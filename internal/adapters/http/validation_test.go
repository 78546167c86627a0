package httpadapter

import (
	"net/http"
	"testing"

	"github.com/rulevii/compliance-rag/internal/config"
)

func newValidatingHandler(t *testing.T) http.Handler {
	t.Helper()
	validator, err := NewRequestValidator()
	if err != nil {
		t.Fatalf("NewRequestValidator() error = %v", err)
	}
	return newTestHandler(config.Config{}, WithValidator(validator))
}

func TestValidatorRejectsUnknownSourceType(t *testing.T) {
	handler := newValidatingHandler(t)

	res := postJSON(t, handler, "/v1/rag/retrieve", map[string]any{
		"query":        "ramps",
		"source_types": []string{"gossip"},
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestValidatorRejectsMissingRequiredField(t *testing.T) {
	handler := newValidatingHandler(t)

	res := postJSON(t, handler, "/v1/rag/query", map[string]any{"mode": "compliance"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestValidatorPassesValidRequest(t *testing.T) {
	handler := newValidatingHandler(t)

	res := postJSON(t, handler, "/v1/rag/retrieve", map[string]any{
		"query":        "toilet count for office",
		"mode":         "plan_draft",
		"source_types": []string{"procedural"},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
}
