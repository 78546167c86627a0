// Package embedding provides the process-wide embedding provider and its backends.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/infrastructure/resilience"
)

// Backend turns texts into vectors, one per input, in input order.
type Backend interface {
	Embed(ctx context.Context, texts []string) ([]domain.Vector, error)
}

// Warmer is implemented by backends that need a model load before the first request.
type Warmer interface {
	Warm(ctx context.Context) error
}

// warmTimeout bounds the one-time model load. It is independent of the caller that
// happens to trigger it.
const warmTimeout = 2 * time.Minute

type Option func(*Provider)

// WithCache serves repeated query embeddings from cache.
func WithCache(cache *Cache) Option {
	return func(p *Provider) {
		p.cache = cache
	}
}

// WithDimension rejects vectors whose length differs from dim.
func WithDimension(dim int) Option {
	return func(p *Provider) {
		p.dim = dim
	}
}

func WithExecutor(executor *resilience.Executor) Option {
	return func(p *Provider) {
		p.executor = executor
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Provider is created once at startup and shared by every request. The backend warm-up runs
// at most once, on first use.
type Provider struct {
	backend  Backend
	model    string
	dim      int
	cache    *Cache
	executor *resilience.Executor
	logger   *slog.Logger

	warmOnce sync.Once
}

func NewProvider(backend Backend, model string, opts ...Option) *Provider {
	p := &Provider{
		backend: backend,
		model:   model,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	p.warm(ctx)

	vectors, err := p.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, vector := range vectors {
		if err := p.checkDimension(vector); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
	}
	return vectors, nil
}

func (p *Provider) EmbedQuery(ctx context.Context, text string) (domain.Vector, error) {
	if p.cache != nil {
		if vector, ok := p.cache.Get(p.model, text); ok && p.checkDimension(vector) == nil {
			return vector, nil
		}
	}

	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	vector := vectors[0]
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}

	if p.cache != nil {
		if err := p.cache.Put(p.model, text, vector); err != nil {
			p.logger.Warn("embedding cache write failed", "model", p.model, "error", err)
		}
	}
	return vector, nil
}

func (p *Provider) embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if p.executor == nil {
		return p.backend.Embed(ctx, texts)
	}
	var out []domain.Vector
	err := p.executor.Execute(ctx, "embedding."+p.model, func(callCtx context.Context) error {
		vectors, err := p.backend.Embed(callCtx, texts)
		if err != nil {
			return err
		}
		out = vectors
		return nil
	}, classifyBackendError)
	return out, err
}

// warm failures are logged only; the request that follows reports the real error if the
// backend is still unusable.
func (p *Provider) warm(ctx context.Context) {
	p.warmOnce.Do(func() {
		warmer, ok := p.backend.(Warmer)
		if !ok {
			return
		}
		warmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), warmTimeout)
		defer cancel()
		if err := warmer.Warm(warmCtx); err != nil {
			p.logger.Warn("embedding warm-up failed", "model", p.model, "error", err)
			return
		}
		p.logger.Info("embedding backend ready", "model", p.model)
	})
}

func (p *Provider) checkDimension(vector domain.Vector) error {
	if p.dim > 0 && len(vector) != p.dim {
		return fmt.Errorf("dimension %d, expected %d", len(vector), p.dim)
	}
	return nil
}

func classifyBackendError(err error) resilience.ErrorClassification {
	if err == nil || resilience.IsCanceled(err) {
		return resilience.ErrorClassification{}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
