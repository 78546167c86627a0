package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func TestIngestEventRoundTrip(t *testing.T) {
	payload, err := encodeEvent("doc-42", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	id, err := decodeEvent(payload)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if id != "doc-42" {
		t.Fatalf("id = %q, want doc-42", id)
	}
}

func TestDecodeEventAcceptsBareID(t *testing.T) {
	id, err := decodeEvent([]byte(" doc-7\n"))
	if err != nil || id != "doc-7" {
		t.Fatalf("decodeEvent() = %q, %v", id, err)
	}
}

func TestDecodeEventRejectsMissingID(t *testing.T) {
	for _, raw := range []string{"", `{"published_at":"2026-10-01T00:00:00Z"}`, `{broken`} {
		if _, err := decodeEvent([]byte(raw)); err == nil {
			t.Fatalf("decodeEvent(%q) expected error", raw)
		}
	}
}

func TestEncodeEventRejectsEmptyID(t *testing.T) {
	if _, err := encodeEvent("  ", time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWrapTemporaryIfNeededMarksConnectionErrors(t *testing.T) {
	err := wrapTemporaryIfNeeded(nats.ErrNoServers)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}

	permanent := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(permanent); domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("permanent error marked temporary: %v", got)
	}
}

func TestPublishedAtFromContext(t *testing.T) {
	if _, ok := PublishedAt(context.Background()); ok {
		t.Fatalf("expected no publish time on a bare context")
	}
	at := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	ctx := context.WithValue(context.Background(), publishedAtKey{}, at)
	got, ok := PublishedAt(ctx)
	if !ok || !got.Equal(at) {
		t.Fatalf("PublishedAt() = %v, %v", got, ok)
	}
}
