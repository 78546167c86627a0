package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	meta domain.DocumentMetadata,
	body io.Reader,
) (*domain.LawDocument, error) {
	meta, err := normalizeMetadata(filename, meta)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.LawDocument{
		ID:           id,
		Filename:     filename,
		MimeType:     mimeType,
		StoragePath:  storageKey,
		Source:       meta.Source,
		LawCode:      meta.LawCode,
		DocumentType: meta.DocumentType,
		Status:       domain.StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

// normalizeMetadata requires a law code and a known document type. Source defaults to the
// file name without extension.
func normalizeMetadata(filename string, meta domain.DocumentMetadata) (domain.DocumentMetadata, error) {
	meta.LawCode = strings.TrimSpace(meta.LawCode)
	meta.DocumentType = strings.ToLower(strings.TrimSpace(meta.DocumentType))
	meta.Source = strings.TrimSpace(meta.Source)

	if meta.LawCode == "" {
		return meta, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("law_code is required"))
	}
	if meta.DocumentType == "" {
		meta.DocumentType = domain.DocTypeStatutory
	}
	if !domain.IsValidDocumentType(meta.DocumentType) {
		return meta, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("unknown document_type %q", meta.DocumentType))
	}
	if meta.Source == "" {
		base := filepath.Base(filename)
		meta.Source = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return meta, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
