package usecase

import (
	"errors"
	"fmt"
	"math"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

var errZeroNorm = errors.New("zero-norm vector")

// MergeCandidates unions vector-search and directly fetched candidates by ID. The first
// occurrence wins, so a chunk found both ways keeps its vector-search score. The result is
// not sorted.
func MergeCandidates(vector, direct []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(vector)+len(direct))
	seen := make(map[string]struct{}, len(vector)+len(direct))
	add := func(candidates []domain.Candidate) {
		for _, candidate := range candidates {
			if candidate.ID != "" {
				if _, ok := seen[candidate.ID]; ok {
					continue
				}
				seen[candidate.ID] = struct{}{}
			}
			out = append(out, candidate)
		}
	}
	add(vector)
	add(direct)
	return out
}

// scoreDirectChunks turns stored chunks into candidates scored against the query vector plus
// boost. Chunks whose ID is in skip are ignored. The embedding never leaves this function.
// Any vector that cannot be compared fails the whole batch with domain.ErrMalformedVector.
func scoreDirectChunks(query domain.Vector, chunks []domain.StoredChunk, skip map[string]struct{}, boost float64) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		if _, ok := skip[chunk.ID]; ok {
			continue
		}
		similarity, err := cosineSimilarity(query, chunk.Embedding)
		if err != nil {
			return nil, domain.WrapError(domain.ErrMalformedVector, fmt.Sprintf("score chunk %s", chunk.ID), err)
		}
		candidate := chunk.Candidate
		candidate.Similarity = boostScore(similarity, boost)
		out = append(out, candidate)
	}
	return out, nil
}

// applyFallbackBoost raises vector-search candidates tagged with one of lawCodes by boost.
func applyFallbackBoost(candidates []domain.Candidate, lawCodes map[string]struct{}, boost float64) []domain.Candidate {
	if len(lawCodes) == 0 {
		return candidates
	}
	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		if _, ok := lawCodes[out[i].LawCode]; ok {
			out[i].Similarity = boostScore(out[i].Similarity, boost)
		}
	}
	return out
}

// boostScore adds boost and clamps the result to [0, 1].
func boostScore(similarity, boost float64) float64 {
	score := similarity + boost
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func cosineSimilarity(a, b domain.Vector) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty vector: query=%d stored=%d", len(a), len(b))
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: query=%d stored=%d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, errZeroNorm
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(similarity) || math.IsInf(similarity, 0) {
		return 0, fmt.Errorf("non-finite similarity")
	}
	return similarity, nil
}
