package ollama

import (
	"fmt"
	"strings"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

const assistantRole = `You are an architectural compliance assistant for Philippine building regulations:
the National Building Code (PD 1096) and its IRR, the Fire Code (RA 9514), the Accessibility Law
(BP 344) and related statutes.`

const groundingRules = `Answer only from the knowledge base context. When the context does not contain the answer,
reply "I cannot find this information in the provided resources." Cite the law and section for
every requirement, for example [RA 9514 Section 10.2.5].`

var modeInstructions = map[string]string{
	domain.ModeQuickAnswer: `Mode: quick answer.
Lead with the direct answer in a few short bullet points and cite one or two key sections.
Suggest the compliance mode when a full review is needed.`,
	domain.ModeCompliance: `Mode: compliance check.
Structure the answer as: Summary, Applicable Codes (law and sections), Requirements Checklist
(one line per requirement with its reference), Notes and Warnings, Cross-References.`,
	domain.ModePlanDraft: `Mode: plan draft.
Write planning-document text that can be pasted into formal submissions, with the governing
code citation next to each provision.`,
}

func systemPromptFor(mode string) string {
	instructions, ok := modeInstructions[mode]
	if !ok {
		instructions = modeInstructions[domain.DefaultMode]
	}
	return assistantRole + "\n\n" + groundingRules + "\n\n" + instructions
}

func maxTokensFor(mode string) int {
	if mode == domain.ModeQuickAnswer || mode == "" {
		return 800
	}
	return 2000
}

func buildAnswerPrompt(question, contextText string) string {
	var b strings.Builder
	if strings.TrimSpace(contextText) != "" {
		fmt.Fprintf(&b, "KNOWLEDGE BASE CONTEXT:\n%s\n\n", contextText)
	}
	fmt.Fprintf(&b, "USER QUESTION: %s\n", question)
	return b.String()
}
