package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func TestSaveThenOpen(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "doc-1_ra9514.txt", strings.NewReader("SECTION 1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rc, err := store.Open(ctx, "doc-1_ra9514.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "SECTION 1" {
		t.Fatalf("content = %q", string(data))
	}
}

func TestOpenMissingReturnsNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = store.Open(context.Background(), "missing.pdf")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestKeysCannotEscapeBasePath(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"../etc/passwd", "/abs/path", "", "nested/file.txt"} {
		err := store.Save(context.Background(), key, strings.NewReader("x"))
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("Save(%q) error = %v, want ErrInvalidInput", key, err)
		}
	}
}
