package prompt

import (
	"strings"

	"review-insights-be/pkg/insight/evidence"
)

// GroundedBuilder renders one user turn with its evidence block attached.
type GroundedBuilder struct {
	evidence *evidence.Evidence
	query    string
}

func NewGroundedBuilder(ev *evidence.Evidence, query string) *GroundedBuilder {
	return &GroundedBuilder{
		evidence: ev,
		query:    query,
	}
}

func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeEvidence(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeEvidence(prompt *strings.Builder) {
	if b.evidence == nil || b.evidence.Text == "" {
		return
	}

	prompt.WriteString("<evidence>\n")
	prompt.WriteString(b.evidence.Text)
	prompt.WriteString("</evidence>\n\n")
}

func (b *GroundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("Answer from the evidence sections above:\n")
	prompt.WriteString("- Every factual claim must trace to an evidence section\n")
	prompt.WriteString("- Synthesize across reports when more than one is relevant\n")
	prompt.WriteString("- If the evidence doesn't cover the question, say so honestly\n")
	if b.evidence != nil && b.evidence.LowEvidence {
		prompt.WriteString("- Evidence for this question is thin; hedge accordingly and say what's missing\n")
	}
	prompt.WriteString("</guidelines>\n\n")
}

func (b *GroundedBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now answer based on the evidence:")
}
