package usecase

import (
	"strings"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

const contentHintBoost = 0.05

type contentHint struct {
	trigger string
	terms   []string
}

// Query keyword -> content keywords that usually carry the numeric answer.
var defaultContentHints = []contentHint{
	{trigger: "sprinkler", terms: []string{"sprinkler", "spacing", "coverage area"}},
	{trigger: "exit", terms: []string{"exit", "egress", "travel distance"}},
	{trigger: "stair", terms: []string{"stair", "riser", "tread"}},
	{trigger: "ramp", terms: []string{"ramp", "gradient", "slope"}},
	{trigger: "parking", terms: []string{"parking slot", "parking space"}},
	{trigger: "setback", terms: []string{"setback", "yard"}},
	{trigger: "toilet", terms: []string{"water closet", "lavatory", "fixture"}},
	{trigger: "ceiling", terms: []string{"ceiling height", "clear height"}},
	{trigger: "corridor", terms: []string{"corridor", "clear width"}},
	{trigger: "fire extinguisher", terms: []string{"extinguisher", "travel distance"}},
}

// applyContentHints adds a small boost to candidates whose content mentions a term hinted by
// the query. Each candidate is boosted at most once.
func applyContentHints(query string, candidates []domain.Candidate, boost float64) []domain.Candidate {
	lowered := strings.ToLower(query)
	terms := make([]string, 0, 8)
	for _, hint := range defaultContentHints {
		if strings.Contains(lowered, hint.trigger) {
			terms = append(terms, hint.terms...)
		}
	}
	if len(terms) == 0 {
		return candidates
	}

	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		content := strings.ToLower(out[i].Content)
		for _, term := range terms {
			if strings.Contains(content, term) {
				out[i].Similarity = boostScore(out[i].Similarity, boost)
				break
			}
		}
	}
	return out
}
