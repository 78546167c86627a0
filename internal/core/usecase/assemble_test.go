package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func TestExtractSection(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "reference tag", content: "[Reference: NBC Rule VII Sec. 707] Maximum height", want: "[Reference: NBC Rule VII Sec. 707]"},
		{name: "reference wins over earlier section", content: "Section 4 applies. [Reference: RA 9514 IRR]", want: "[Reference: RA 9514 IRR]"},
		{name: "dotted section", content: "as required by Section 10.2.5.1 of the IRR", want: "Section 10.2.5.1"},
		{name: "upper case section", content: "SECTION 12 SCOPE", want: "SECTION 12"},
		{name: "article", content: "Article 4 Definitions", want: "Article 4"},
		{name: "article upper", content: "ARTICLE 7 general", want: "ARTICLE 7"},
		{name: "fallback", content: "no label here", want: "General Provisions"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractSection(tc.content))
		})
	}
}

func TestAssembleContextFormatsBlocksAndCitations(t *testing.T) {
	ranked := []domain.Candidate{
		{ID: "1", Content: "Section 10.2.6 Exits", Source: "Fire Code IRR", LawCode: "RA 9514", ChunkIndex: 4, Similarity: 0.87654},
		{ID: "2", Content: "body two", Source: "NBC", LawCode: "PD 1096", SectionRef: "Sec. 1207", ChunkIndex: 2, Similarity: 0.8},
		{ID: "3", Content: "Article 2 body", Source: "BP 344", LawCode: "BP 344", Similarity: 0.7},
		{ID: "4", Content: "fourth body", Source: "Rule VII", LawCode: "Rule VII", Similarity: 0.6},
	}

	citations, contextText := AssembleContext(ranked)

	require.Len(t, citations, 4)
	assert.Equal(t, domain.Citation{
		Document:   "Fire Code IRR",
		Page:       4,
		Section:    "Section 10.2.6",
		Similarity: 0.877,
		Content:    "Section 10.2.6 Exits",
		LawCode:    "RA 9514",
	}, citations[0])
	assert.Equal(t, "General Provisions", citations[1].Section)

	blocks := strings.Split(contextText, "\n\n---\n\n")
	require.Len(t, blocks, 4)
	assert.Equal(t, "[HIGH RELEVANCE] [Source: Fire Code IRR] [Law: RA 9514] [Section: Section 10.2.6]\nSection 10.2.6 Exits", blocks[0])
	assert.Equal(t, "[HIGH RELEVANCE] [Source: NBC] [Law: PD 1096] [Section: Sec. 1207]\nbody two", blocks[1])
	assert.True(t, strings.HasPrefix(blocks[2], "[HIGH RELEVANCE] "))
	assert.Equal(t, "[Source: Rule VII] [Law: Rule VII] [Section: General Provisions]\nfourth body", blocks[3])
}

func TestAssembleContextEmpty(t *testing.T) {
	citations, contextText := AssembleContext(nil)
	require.NotNil(t, citations)
	assert.Empty(t, citations)
	assert.Empty(t, contextText)
}
