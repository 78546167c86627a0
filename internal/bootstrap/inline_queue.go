package bootstrap

import (
	"context"
	"errors"

	"github.com/rulevii/compliance-rag/internal/core/ports"
)

var errInlineSubscribe = errors.New("inline queue does not support subscriptions")

// inlineQueue runs processing at publish time. ragctl uses it to ingest without a worker.
type inlineQueue struct {
	processor ports.DocumentProcessor
}

func (q inlineQueue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	return q.processor.ProcessByID(ctx, documentID)
}

func (q inlineQueue) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errInlineSubscribe
}
