package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

// OpenAIBackend embeds through any OpenAI-compatible embeddings endpoint.
type OpenAIBackend struct {
	embedder embeddings.Embedder
}

// NewOpenAIBackend builds the backend. Local OpenAI-compatible servers usually ignore the
// token, so an empty one is sent as "none".
func NewOpenAIBackend(baseURL, token, model string) (*OpenAIBackend, error) {
	if strings.TrimSpace(token) == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	return &OpenAIBackend{embedder: embedder}, nil
}

func (b *OpenAIBackend) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	raw, err := b.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	out := make([]domain.Vector, 0, len(raw))
	for _, vector := range raw {
		out = append(out, domain.Vector(vector))
	}
	return out, nil
}
