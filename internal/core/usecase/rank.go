package usecase

import (
	"sort"
	"strings"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

const (
	dedupPrefixRunes = 200
	dedupProbeRunes  = 100
)

// RankCandidates orders candidates for the given mode:
//  1. stable sort by similarity, highest first;
//  2. drop everything under the mode's similarity floor;
//  3. drop near-duplicates of an already accepted candidate;
//  4. keep at most TopK.
//
// Two chunks are near-duplicates when the first 100 runes of either one occur inside the first
// 200 runes of the other. The check compares every candidate against all accepted ones, so it
// is O(n²) in the candidate count; n is bounded by the search and fetch limits. It is meant to
// catch overlapping chunks and re-ingested copies with small truncation or OCR differences,
// not to prove equality. Chunks with blank content are dropped: they have nothing to cite.
func RankCandidates(candidates []domain.Candidate, profile domain.ModeProfile) []domain.Candidate {
	if len(candidates) == 0 {
		return []domain.Candidate{}
	}

	sorted := make([]domain.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	type accepted struct {
		prefix string
		probe  string
	}
	kept := make([]accepted, 0, len(sorted))
	out := make([]domain.Candidate, 0, len(sorted))

	for _, candidate := range sorted {
		if candidate.Similarity < profile.SimilarityFloor {
			continue
		}
		if strings.TrimSpace(candidate.Content) == "" {
			continue
		}

		prefix := runePrefix(candidate.Content, dedupPrefixRunes)
		probe := runePrefix(candidate.Content, dedupProbeRunes)

		duplicate := false
		for _, prev := range kept {
			if strings.Contains(prev.prefix, probe) || strings.Contains(prefix, prev.probe) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		kept = append(kept, accepted{prefix: prefix, probe: probe})
		out = append(out, candidate)
	}

	if profile.TopK >= 0 && len(out) > profile.TopK {
		out = out[:profile.TopK]
	}
	return out
}

func runePrefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
