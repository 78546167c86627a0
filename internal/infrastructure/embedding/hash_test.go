package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func TestHashBackendIsDeterministicAndNormalized(t *testing.T) {
	backend := NewHashBackend(64)

	first, err := backend.Embed(context.Background(), []string{"Fire exit width", ""})
	require.NoError(t, err)
	second, err := backend.Embed(context.Background(), []string{"fire EXIT width", ""})
	require.NoError(t, err)

	assert.Equal(t, first, second, "tokenization is case-insensitive")
	for _, vector := range first {
		require.Len(t, vector, 64)
		assert.InDelta(t, 1.0, norm(vector), 1e-5)
	}
}

func TestHashBackendRelatedTextScoresHigher(t *testing.T) {
	backend := NewHashBackend(DefaultHashDimension)
	vectors, err := backend.Embed(context.Background(), []string{
		"sprinkler spacing in a coffee shop",
		"sprinkler head spacing requirements",
		"parking slots for residential subdivisions",
	})
	require.NoError(t, err)

	related := dot(vectors[0], vectors[1])
	unrelated := dot(vectors[0], vectors[2])
	assert.Greater(t, related, unrelated)
}

func TestHashBackendHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashBackend(8).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func norm(v domain.Vector) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b domain.Vector) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
