package ports

import (
	"context"
	"io"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

// ContextRetriever is the inbound contract for the retrieval/ranking engine.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query domain.Query) (*domain.RetrievalResult, error)
}

// QueryService answers a question from retrieved regulation context.
type QueryService interface {
	Answer(ctx context.Context, query domain.Query) (*domain.Answer, error)
}

// LawLookup resolves a single law or code citation to its best matching chunk.
type LawLookup interface {
	Lookup(ctx context.Context, query string) (*domain.LawReference, error)
}

// DocumentIngestor is the inbound contract for corpus upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, meta domain.DocumentMetadata, body io.Reader) (*domain.LawDocument, error)
}

// DocumentReader is the inbound read model for corpus document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.LawDocument, error)
}

// DocumentProcessor is the inbound contract for asynchronous corpus processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
