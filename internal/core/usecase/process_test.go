package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/panjf2000/ants/v2"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type processRepoFake struct {
	doc           *domain.LawDocument
	getErr        error
	countErr      error
	statusErr     error
	failStatusErr error
	statusCalls   []statusCall
	chunkCount    int
	countID       string
}

func (f *processRepoFake) Create(context.Context, *domain.LawDocument) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.LawDocument, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *processRepoFake) SaveChunkCount(_ context.Context, id string, chunkCount int) error {
	if f.countErr != nil {
		return f.countErr
	}
	f.countID = id
	f.chunkCount = chunkCount
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.LawDocument) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type chunkerFake struct {
	chunks []domain.ChunkDraft
}

func (f *chunkerFake) Split(string) []domain.ChunkDraft { return f.chunks }

type indexerFake struct {
	err     error
	doc     *domain.LawDocument
	chunks  []domain.ChunkDraft
	vectors []domain.Vector
}

func (f *indexerFake) IndexChunks(_ context.Context, doc *domain.LawDocument, chunks []domain.ChunkDraft, vectors []domain.Vector) error {
	if f.err != nil {
		return f.err
	}
	f.doc = doc
	f.chunks = chunks
	f.vectors = vectors
	return nil
}

type shortEmbedderFake struct{}

func (shortEmbedderFake) Embed(context.Context, []string) ([]domain.Vector, error) {
	return []domain.Vector{{1}}, nil
}

func (shortEmbedderFake) EmbedQuery(context.Context, string) (domain.Vector, error) { return nil, nil }

func drafts(texts ...string) []domain.ChunkDraft {
	out := make([]domain.ChunkDraft, 0, len(texts))
	for i, text := range texts {
		out = append(out, domain.ChunkDraft{Index: i, Text: text})
	}
	return out
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{doc: &domain.LawDocument{ID: "doc-1", LawCode: "RA 9514"}}
	indexer := &indexerFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{chunks: drafts("a", "b")},
		&embedderFake{vector: domain.Vector{1}},
		indexer,
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.countID != "doc-1" || repo.chunkCount != 2 {
		t.Fatalf("expected chunk count 2 for doc-1, got %s=%d", repo.countID, repo.chunkCount)
	}
	if indexer.doc == nil || indexer.doc.LawCode != "RA 9514" {
		t.Fatalf("expected indexer to receive the law document, got %+v", indexer.doc)
	}
}

func TestProcessByIDEmbedsBatchesOnPoolInOrder(t *testing.T) {
	pool, err := ants.NewPool(3)
	if err != nil {
		t.Fatalf("ants.NewPool() error = %v", err)
	}
	defer pool.Release()

	texts := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		texts = append(texts, fmt.Sprintf("chunk-%02d", i))
	}
	embedder := &embedderFake{perText: func(text string) domain.Vector {
		var n int
		_, _ = fmt.Sscanf(text, "chunk-%02d", &n)
		return domain.Vector{float32(n)}
	}}
	indexer := &indexerFake{}
	repo := &processRepoFake{doc: &domain.LawDocument{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{chunks: drafts(texts...)},
		embedder,
		indexer,
		WithEmbedPool(pool),
		WithEmbedBatchSize(3),
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(embedder.batches) != 4 {
		t.Fatalf("expected 4 embed batches, got %d", len(embedder.batches))
	}
	if len(indexer.vectors) != 10 {
		t.Fatalf("expected 10 vectors, got %d", len(indexer.vectors))
	}
	for i, vector := range indexer.vectors {
		if len(vector) != 1 || vector[0] != float32(i) {
			t.Fatalf("vector %d out of order: %v", i, vector)
		}
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.LawDocument{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{err: errors.New("extract fail")},
		&chunkerFake{chunks: drafts("a")},
		&embedderFake{vector: domain.Vector{1}},
		&indexerFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected processing + failed status updates, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls[1])
	}
}

func TestProcessByIDMarksFailedOnVectorMismatch(t *testing.T) {
	repo := &processRepoFake{doc: &domain.LawDocument{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{chunks: drafts("a", "b")},
		shortEmbedderFake{},
		&indexerFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDMarksFailedOnEmptyChunks(t *testing.T) {
	repo := &processRepoFake{doc: &domain.LawDocument{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{},
		&embedderFake{vector: domain.Vector{1}},
		&indexerFake{},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDReportsFailStatusError(t *testing.T) {
	repo := &processRepoFake{
		doc:           &domain.LawDocument{ID: "doc-1"},
		failStatusErr: errors.New("db down"),
	}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{chunks: drafts("a")},
		&embedderFake{vector: domain.Vector{1}},
		&indexerFake{err: errors.New("index fail")},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got != "index chunks: index fail; mark failed status: db down" {
		t.Fatalf("unexpected error: %s", got)
	}
}
