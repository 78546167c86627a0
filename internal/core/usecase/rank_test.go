package usecase

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func TestRankCandidatesSortsFiltersAndTruncates(t *testing.T) {
	profile := domain.ModeProfile{Name: "test", TopK: 3, SimilarityFloor: 0.3}
	input := []domain.Candidate{
		candidate("a", "PD 1096", "alpha text about stairs", 0.40),
		candidate("b", "PD 1096", "bravo text about ramps", 0.90),
		candidate("c", "PD 1096", "charlie text about exits", 0.29),
		candidate("d", "PD 1096", "delta text about parking", 0.70),
		candidate("e", "PD 1096", "echo text about windows", 0.55),
	}

	ranked := RankCandidates(input, profile)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"b", "d", "e"}, ids(ranked))
	assert.Equal(t, 0.40, input[0].Similarity, "input must not be reordered or mutated")
	assert.Equal(t, "a", input[0].ID)
}

func TestRankCandidatesKeepsInputOrderForTies(t *testing.T) {
	profile := domain.ModeProfile{TopK: 10, SimilarityFloor: 0}
	input := []domain.Candidate{
		candidate("first", "RA 9514", "first tied chunk", 0.5),
		candidate("second", "RA 9514", "second tied chunk", 0.5),
		candidate("third", "RA 9514", "third tied chunk", 0.5),
	}

	assert.Equal(t, []string{"first", "second", "third"}, ids(RankCandidates(input, profile)))
}

func TestRankCandidatesDropsNearDuplicates(t *testing.T) {
	profile := domain.ModeProfile{TopK: 10, SimilarityFloor: 0}
	full := "SECTION 10.2.5.4 Sprinkler heads shall be spaced so that the maximum protection area per head " +
		"does not exceed the limits set by the installation standard for the occupancy hazard class."
	truncated := string([]rune(full)[:150])
	shifted := "x " + full
	other := "Rule VII Section 707 Maximum height of buildings shall follow the zoning ordinance."

	ranked := RankCandidates([]domain.Candidate{
		candidate("full", "RA 9514", full, 0.80),
		candidate("truncated", "RA 9514", truncated, 0.70),
		candidate("shifted", "RA 9514", shifted, 0.75),
		candidate("other", "Rule VII", other, 0.60),
	}, profile)

	assert.Equal(t, []string{"full", "other"}, ids(ranked))
}

func TestRankCandidatesDropsBlankContent(t *testing.T) {
	profile := domain.ModeProfile{TopK: 10, SimilarityFloor: 0}
	ranked := RankCandidates([]domain.Candidate{
		candidate("blank", "PD 1096", "   ", 0.99),
		candidate("real", "PD 1096", "Section 3 scope", 0.50),
	}, profile)

	assert.Equal(t, []string{"real"}, ids(ranked))
}

func TestRankCandidatesEmptyInput(t *testing.T) {
	ranked := RankCandidates(nil, domain.ResolveMode(""))
	require.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestRankCandidatesInvariantsHoldForRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"exit", "ramp", "stair", "sprinkler", "setback", "toilet", "parking", "window", "corridor", "alarm"}

	for _, profile := range domain.ModeProfiles() {
		for round := 0; round < 50; round++ {
			n := rng.Intn(30)
			input := make([]domain.Candidate, 0, n)
			for i := 0; i < n; i++ {
				var b strings.Builder
				for w := 0; w < 3+rng.Intn(20); w++ {
					b.WriteString(words[rng.Intn(len(words))])
					b.WriteByte(' ')
				}
				input = append(input, candidate(string(rune('a'+i)), "PD 1096", b.String(), rng.Float64()))
			}

			ranked := RankCandidates(input, profile)

			require.LessOrEqual(t, len(ranked), profile.TopK)
			for i, c := range ranked {
				require.GreaterOrEqual(t, c.Similarity, profile.SimilarityFloor)
				if i > 0 {
					require.GreaterOrEqual(t, ranked[i-1].Similarity, c.Similarity)
				}
			}
			assert.Equal(t, ranked, RankCandidates(ranked, profile), "ranking must be idempotent")
		}
	}
}

func ids(candidates []domain.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.ID)
	}
	return out
}
