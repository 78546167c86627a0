package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
)

const (
	lookupNotFoundContent = "Reference not found in the database."
	lookupNotFoundSource  = "System"
)

type LookupOption func(*LawLookupUseCase)

// WithLookupTimeout bounds the embedding call and the index search separately.
func WithLookupTimeout(timeout time.Duration) LookupOption {
	return func(uc *LawLookupUseCase) {
		if timeout > 0 {
			uc.timeout = timeout
		}
	}
}

// WithLookupFloor sets the minimum similarity a match needs to be returned.
func WithLookupFloor(floor float64) LookupOption {
	return func(uc *LawLookupUseCase) {
		if floor >= 0 {
			uc.floor = floor
		}
	}
}

// LawLookupUseCase resolves a citation such as "RA 9514 Section 10" to the single closest chunk.
type LawLookupUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	timeout  time.Duration
	floor    float64
}

func NewLawLookupUseCase(embedder ports.Embedder, index ports.VectorIndex, opts ...LookupOption) *LawLookupUseCase {
	uc := &LawLookupUseCase{
		embedder: embedder,
		index:    index,
		timeout:  DefaultRetrievalConfig().RemoteTimeout,
		floor:    domain.ResolveMode(domain.ModeQuickAnswer).SimilarityFloor,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *LawLookupUseCase) Lookup(ctx context.Context, query string) (*domain.LawReference, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "lookup law", errors.New("query is required"))
	}

	vector, err := embedQueryWithin(ctx, uc.embedder, query, uc.timeout, "lookup law")
	if err != nil {
		return nil, err
	}

	candidates, err := uc.search(ctx, vector)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("lookup law: %w", ctxErr)
		}
		return nil, domain.WrapError(domain.ErrRemoteUnavailable, "lookup law", fmt.Errorf("search vector index: %w", err))
	}
	if len(candidates) == 0 || candidates[0].Similarity < uc.floor {
		return &domain.LawReference{
			Content:   lookupNotFoundContent,
			Source:    lookupNotFoundSource,
			Relevance: 0,
		}, nil
	}

	best := candidates[0]
	return &domain.LawReference{
		Content:   best.Content,
		Source:    best.Source,
		Relevance: best.Similarity,
	}, nil
}

func (uc *LawLookupUseCase) search(ctx context.Context, vector domain.Vector) ([]domain.Candidate, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.index.SearchSimilar(callCtx, vector, 1, nil)
}
