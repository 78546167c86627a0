package ports

import (
	"context"
	"io"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]domain.Vector, error)
	EmbedQuery(ctx context.Context, text string) (domain.Vector, error)
}

// VectorIndex performs similarity search over the chunk corpus.
// docTypes restricts results to the given document types; empty means all.
type VectorIndex interface {
	SearchSimilar(ctx context.Context, query domain.Vector, matchCount int, docTypes []string) ([]domain.Candidate, error)
}

// ChunkFetcher reads chunks tagged with one law code, embeddings included.
// Implementations return domain.ErrMalformedVector when a stored embedding cannot be decoded.
type ChunkFetcher interface {
	FetchByLawCode(ctx context.Context, lawCode string, limit int) ([]domain.StoredChunk, error)
}

// ChunkIndexer writes embedded chunks of a corpus document.
type ChunkIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.LawDocument, chunks []domain.ChunkDraft, vectors []domain.Vector) error
}

// AnswerGenerator creates the final user-facing answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// DocumentRepository persists and reads corpus document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.LawDocument) error
	GetByID(ctx context.Context, id string) (*domain.LawDocument, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveChunkCount(ctx context.Context, id string, chunkCount int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.LawDocument) (string, error)
}

// Chunker splits regulation text into section-aware chunks.
type Chunker interface {
	Split(text string) []domain.ChunkDraft
}

// RetrievalObserver receives degrade events from the engine. Optional.
type RetrievalObserver interface {
	ObserveDegrade(kind string)
	ObserveRoutedLawCodes(count int)
}
