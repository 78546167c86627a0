package domain

import "strings"

const (
	ModeQuickAnswer = "quick_answer"
	ModeCompliance  = "compliance"
	ModePlanDraft   = "plan_draft"

	DefaultMode = ModeQuickAnswer
)

// ModeProfile is the retrieval configuration selected by a mode name.
type ModeProfile struct {
	Name            string   `json:"name"`
	TopK            int      `json:"top_k"`
	SimilarityFloor float64  `json:"similarity_floor"`
	SourceTypes     []string `json:"source_types,omitempty"`
	Temperature     float64  `json:"temperature"`
}

// modeProfiles is never mutated; the first entry is the default.
var modeProfiles = [...]ModeProfile{
	{
		Name:            ModeQuickAnswer,
		TopK:            5,
		SimilarityFloor: 0.30,
		Temperature:     0.3,
	},
	{
		Name:            ModeCompliance,
		TopK:            10,
		SimilarityFloor: 0.25,
		Temperature:     0.1,
	},
	{
		Name:            ModePlanDraft,
		TopK:            8,
		SimilarityFloor: 0.30,
		SourceTypes:     []string{DocTypeSpecializedPlanning, DocTypeHeuristics, DocTypeProcedural},
		Temperature:     0.5,
	},
}

// ResolveMode returns the profile for name. Unknown or empty names resolve to quick_answer.
func ResolveMode(name string) ModeProfile {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, profile := range modeProfiles {
		if profile.Name == key {
			return profile.clone()
		}
	}
	return modeProfiles[0].clone()
}

// ModeProfiles lists every known profile in declaration order.
func ModeProfiles() []ModeProfile {
	out := make([]ModeProfile, 0, len(modeProfiles))
	for _, profile := range modeProfiles {
		out = append(out, profile.clone())
	}
	return out
}

// WithSourceTypes returns a copy restricted to sourceTypes; an empty list keeps the profile filter.
func (p ModeProfile) WithSourceTypes(sourceTypes []string) ModeProfile {
	out := p.clone()
	if len(sourceTypes) > 0 {
		out.SourceTypes = append([]string(nil), sourceTypes...)
	}
	return out
}

func (p ModeProfile) clone() ModeProfile {
	out := p
	if p.SourceTypes != nil {
		out.SourceTypes = append([]string(nil), p.SourceTypes...)
	}
	return out
}
