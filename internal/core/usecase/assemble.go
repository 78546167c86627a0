package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

const (
	defaultSectionLabel   = "General Provisions"
	highRelevanceCount    = 3
	highRelevancePrefix   = "[HIGH RELEVANCE] "
	contextBlockSeparator = "\n\n---\n\n"
)

// Checked in order; the first match wins.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[Reference:\s*[^\]]+\]`),
	regexp.MustCompile(`(?i)Section\s+\d+[.\d]*`),
	regexp.MustCompile(`(?i)SECTION\s+\d+[.\d]*`),
	regexp.MustCompile(`(?i)Article\s+\d+`),
}

// AssembleContext builds citations and the prompt context from ranked candidates.
// The output keeps the input order.
func AssembleContext(ranked []domain.Candidate) ([]domain.Citation, string) {
	citations := make([]domain.Citation, 0, len(ranked))
	blocks := make([]string, 0, len(ranked))

	for i, candidate := range ranked {
		section := extractSection(candidate.Content)
		citations = append(citations, domain.Citation{
			Document:   candidate.Source,
			Page:       candidate.ChunkIndex,
			Section:    section,
			Similarity: round3(candidate.Similarity),
			Content:    candidate.Content,
			LawCode:    candidate.LawCode,
		})

		ref := strings.TrimSpace(candidate.SectionRef)
		if ref == "" {
			ref = section
		}
		block := fmt.Sprintf("[Source: %s] [Law: %s] [Section: %s]\n%s", candidate.Source, candidate.LawCode, ref, candidate.Content)
		if i < highRelevanceCount {
			block = highRelevancePrefix + block
		}
		blocks = append(blocks, block)
	}

	return citations, strings.Join(blocks, contextBlockSeparator)
}

func extractSection(content string) string {
	for _, pattern := range sectionPatterns {
		if match := pattern.FindString(content); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return defaultSectionLabel
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
