package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/routing"
)

type retrieverFake struct {
	result *domain.RetrievalResult
	err    error
	got    domain.Query
}

func (f *retrieverFake) Retrieve(_ context.Context, q domain.Query) (*domain.RetrievalResult, error) {
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.RetrievalResult{Citations: []domain.Citation{}, Mode: domain.ResolveMode(q.Mode)}, nil
}

type queryErrFake struct {
	err error
}

func (f queryErrFake) Answer(_ context.Context, q domain.Query) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Answer{Text: "ok", Mode: domain.ResolveMode(q.Mode)}, nil
}

type lookupFake struct {
	ref *domain.LawReference
	err error
}

func (f lookupFake) Lookup(_ context.Context, query string) (*domain.LawReference, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ref, nil
}

type ingestSuccessFake struct {
	meta domain.DocumentMetadata
}

func (f *ingestSuccessFake) Upload(_ context.Context, filename, mimeType string, meta domain.DocumentMetadata, body io.Reader) (*domain.LawDocument, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}
	if meta.LawCode == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.ErrUnexpectedEOF)
	}
	f.meta = meta

	now := time.Now().UTC()
	return &domain.LawDocument{
		ID:           "doc-1",
		Filename:     filename,
		MimeType:     mimeType,
		StoragePath:  "doc-1_" + filename,
		LawCode:      meta.LawCode,
		DocumentType: meta.DocumentType,
		Status:       domain.StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

type docsErrFake struct {
	err error
}

func (f docsErrFake) GetByID(context.Context, string) (*domain.LawDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.LawDocument{ID: "doc-1", Filename: "a", MimeType: "text/plain", StoragePath: "a", Status: domain.StatusReady}, nil
}

func newTestHandler(cfg config.Config, opts ...RouterOption) http.Handler {
	return NewRouter(cfg, Services{
		Retriever: &retrieverFake{},
		Query:     queryErrFake{},
		Lookup:    lookupFake{ref: &domain.LawReference{Content: "x", Source: "RA 9514", Relevance: 0.9}},
		Ingest:    &ingestSuccessFake{},
		Documents: docsErrFake{},
		LawRouter: routing.NewDefaultRouter(),
	}, opts...).Handler()
}
