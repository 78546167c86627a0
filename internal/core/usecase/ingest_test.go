package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

type ingestRepoFake struct {
	created *domain.LawDocument
	err     error
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.LawDocument) error {
	if f.err != nil {
		return f.err
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.LawDocument, error) {
	return nil, errors.New("not implemented")
}
func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return errors.New("not implemented")
}
func (f *ingestRepoFake) SaveChunkCount(context.Context, string, int) error {
	return errors.New("not implemented")
}

type ingestStorageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *ingestStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *ingestStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type ingestQueueFake struct {
	documentID string
	err        error
}

func (f *ingestQueueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *ingestQueueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func TestIngestUploadSuccess(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &ingestStorageFake{}
	queue := &ingestQueueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	meta := domain.DocumentMetadata{LawCode: " RA 9514 ", DocumentType: "Statutory"}
	doc, err := uc.Upload(context.Background(), "fire code irr.txt", "text/plain", meta, bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected document id")
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", doc.Status)
	}
	if doc.LawCode != "RA 9514" || doc.DocumentType != domain.DocTypeStatutory {
		t.Fatalf("expected normalized metadata, got %q/%q", doc.LawCode, doc.DocumentType)
	}
	if doc.Source != "fire code irr" {
		t.Fatalf("expected source derived from filename, got %q", doc.Source)
	}
	if repo.created == nil {
		t.Fatalf("expected repo.Create call")
	}
	if queue.documentID != doc.ID {
		t.Fatalf("expected queued doc id %s, got %s", doc.ID, queue.documentID)
	}
	if !strings.HasSuffix(storage.savedKey, "_fire_code_irr.txt") {
		t.Fatalf("expected sanitized key suffix, got %s", storage.savedKey)
	}
	if storage.savedBody != "hello" {
		t.Fatalf("expected saved body hello, got %s", storage.savedBody)
	}
}

func TestIngestUploadRejectsBadMetadata(t *testing.T) {
	cases := map[string]domain.DocumentMetadata{
		"missing law code": {DocumentType: domain.DocTypeStatutory},
		"unknown type":     {LawCode: "PD 1096", DocumentType: "memo"},
	}
	for name, meta := range cases {
		t.Run(name, func(t *testing.T) {
			storage := &ingestStorageFake{}
			uc := NewIngestDocumentUseCase(&ingestRepoFake{}, storage, &ingestQueueFake{})

			_, err := uc.Upload(context.Background(), "a.txt", "text/plain", meta, bytes.NewBufferString("x"))
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if storage.savedKey != "" {
				t.Fatalf("nothing should be stored for rejected metadata")
			}
		})
	}
}

func TestIngestUploadQueueError(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &ingestStorageFake{}
	queue := &ingestQueueFake{err: errors.New("queue down")}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	meta := domain.DocumentMetadata{LawCode: "PD 1096", Source: "NBC"}
	_, err := uc.Upload(context.Background(), "report.txt", "text/plain", meta, bytes.NewBufferString("hello"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../etc/passwd":        "passwd",
		"Fire Code (2019).pdf": "Fire_Code__2019_.pdf",
		"":                     "document.bin",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
