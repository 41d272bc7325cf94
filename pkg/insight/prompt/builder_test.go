package prompt

import (
	"strings"
	"testing"

	"review-insights-be/pkg/insight/evidence"

	"github.com/stretchr/testify/assert"
)

func TestBuildEmbedsEvidenceAndQuestion(t *testing.T) {
	ev := &evidence.Evidence{Text: "## Report: Budget App\n### Pricing (relevance 0.9000)\nToo expensive.\n\n"}
	out := NewGroundedBuilder(ev, "What do users say about pricing?").Build()

	assert.Contains(t, out, "<evidence>\n## Report: Budget App")
	assert.Contains(t, out, "<user_question>\nWhat do users say about pricing?")
	assert.True(t, strings.HasSuffix(out, "Now answer based on the evidence:"))

	// Evidence precedes guidelines precedes question.
	assert.Less(t, strings.Index(out, "<evidence>"), strings.Index(out, "<guidelines>"))
	assert.Less(t, strings.Index(out, "<guidelines>"), strings.Index(out, "<user_question>"))
}

func TestBuildOmitsEmptyEvidenceBlock(t *testing.T) {
	out := NewGroundedBuilder(nil, "anything?").Build()
	assert.NotContains(t, out, "<evidence>")
	assert.Contains(t, out, "<guidelines>")
}

func TestBuildAddsHedgeOnLowEvidence(t *testing.T) {
	confident := NewGroundedBuilder(&evidence.Evidence{Text: "x"}, "q").Build()
	thin := NewGroundedBuilder(&evidence.Evidence{Text: "x", LowEvidence: true}, "q").Build()

	assert.NotContains(t, confident, "hedge accordingly")
	assert.Contains(t, thin, "hedge accordingly")
}
