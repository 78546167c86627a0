package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
)

// embedQueryWithin embeds text under timeout. Caller cancellation is returned as the context
// error; every other failure, including the timeout itself, is an embedding failure.
func embedQueryWithin(ctx context.Context, embedder ports.Embedder, text string, timeout time.Duration, op string) (domain.Vector, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	vector, err := embedder.EmbedQuery(callCtx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, domain.WrapError(domain.ErrEmbeddingFailure, op, err)
	}
	if len(vector) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingFailure, op, errors.New("empty query vector"))
	}
	return vector, nil
}
