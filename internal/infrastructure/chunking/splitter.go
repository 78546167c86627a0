package chunking

import (
	"regexp"
	"strings"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

// sectionHeading matches a heading at the start of a line, e.g. "SECTION 10.2.5.4" or "Rule VII".
var sectionHeading = regexp.MustCompile(`(?m)^[ \t]*((?i:section|sec\.|article|rule)[ \t]+[\dIVXLC]+(?:\.\d+)*)`)

// Splitter cuts regulation text at section headings and then into overlapping windows, so every
// chunk can carry the heading it belongs to.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []domain.ChunkDraft {
	var out []domain.ChunkDraft
	for _, sec := range splitSections(text) {
		for _, piece := range s.window(sec.body) {
			out = append(out, domain.ChunkDraft{
				Index:      len(out),
				Text:       piece,
				SectionRef: sec.ref,
			})
		}
	}
	return out
}

type section struct {
	ref  string
	body string
}

func splitSections(text string) []section {
	locs := sectionHeading.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []section{{body: text}}
	}

	out := make([]section, 0, len(locs)+1)
	if preamble := text[:locs[0][0]]; strings.TrimSpace(preamble) != "" {
		out = append(out, section{body: preamble})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, section{
			ref:  normalizeRef(text[loc[2]:loc[3]]),
			body: text[loc[0]:end],
		})
	}
	return out
}

func normalizeRef(ref string) string {
	return strings.Join(strings.Fields(ref), " ")
}

func (s *Splitter) window(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
