package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

const (
	DefaultHashDimension = 384
	hashSaturationK      = 1.2
)

// HashBackend is a deterministic, offline bag-of-words embedder. Tokens are hashed into a
// fixed number of signed buckets, term frequency is saturated BM25-style and the vector is
// L2-normalized. It is meant for development and tests, not for production relevance.
type HashBackend struct {
	dim int
}

func NewHashBackend(dim int) *HashBackend {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashBackend{dim: dim}
}

func (b *HashBackend) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, b.vector(text))
	}
	return out, nil
}

func (b *HashBackend) vector(text string) domain.Vector {
	termFreq := make(map[string]float64, 32)
	for _, token := range tokenizeAlphaNum(text) {
		termFreq[token]++
	}

	buckets := make([]float64, b.dim)
	for token, tf := range termFreq {
		h := hashToken(token)
		weight := (tf * (hashSaturationK + 1)) / (tf + hashSaturationK)
		if h&(1<<31) != 0 {
			weight = -weight
		}
		buckets[int(h%uint32(b.dim))] += weight
	}

	var norm float64
	for _, v := range buckets {
		norm += v * v
	}
	out := make(domain.Vector, b.dim)
	if norm == 0 {
		// Empty text still gets a valid unit vector.
		out[0] = 1
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range buckets {
		out[i] = float32(v / norm)
	}
	return out
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return h.Sum32()
}

func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
