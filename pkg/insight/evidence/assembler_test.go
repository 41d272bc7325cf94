package evidence

import (
	"strings"
	"testing"

	"review-insights-be/internal/entity"
	"review-insights-be/pkg/insight/retrieve"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(report *entity.Report, slug, heading, content string, position int, sim float64) *retrieve.Match {
	return &retrieve.Match{
		Section: &entity.SectionEmbedding{
			Id:       uuid.New(),
			ReportId: report.Id,
			Slug:     slug,
			Heading:  heading,
			Content:  content,
			Position: position,
		},
		Report:            report,
		SectionSimilarity: sim,
	}
}

func TestCitationCarriesDescriptionAndAllMatches(t *testing.T) {
	report := &entity.Report{Id: uuid.New(), Title: "Budget App", Description: "Reviews of a budgeting app."}
	matches := []*retrieve.Match{
		match(report, "complaints", "Complaints", "Sync breaks often.", 3, 0.72),
		match(report, "pricing", "Pricing", "Too expensive for students.", 1, 0.93),
	}

	ev := Assemble(matches, 0.5)
	require.Len(t, ev.Citations, 1)

	c := ev.Citations[0]
	assert.Equal(t, "Reviews of a budgeting app.", c.ReportDescription)
	require.Len(t, c.Matches, 2)

	// Ranked like the evidence text: best section first.
	assert.Equal(t, "pricing", c.Matches[0].SectionSlug)
	assert.Equal(t, "Too expensive for students.", c.Matches[0].Excerpt)
	assert.Equal(t, 0.93, c.Matches[0].Similarity)
	assert.Equal(t, "complaints", c.Matches[1].SectionSlug)
	assert.Equal(t, "Complaints", c.Matches[1].Heading)
}

func TestAssembleGroupsAndOrders(t *testing.T) {
	budget := &entity.Report{Id: uuid.New(), Title: "Budget App"}
	fitness := &entity.Report{Id: uuid.New(), Title: "Fitness App"}

	matches := []*retrieve.Match{
		match(fitness, "", "", "Users love the streak feature.", 0, 0.81),
		match(budget, "complaints", "Complaints", "Sync breaks often.", 3, 0.72),
		match(budget, "pricing", "Pricing", "Too expensive for students.", 1, 0.93),
	}

	ev := Assemble(matches, 0.35)

	want := "## Report: Budget App\n" +
		"### Pricing (relevance 0.9300)\nToo expensive for students.\n" +
		"### Complaints (relevance 0.7200)\nSync breaks often.\n" +
		"\n" +
		"## Report: Fitness App\n" +
		"### (preamble) (relevance 0.8100)\nUsers love the streak feature.\n" +
		"\n"
	assert.Equal(t, want, ev.Text)

	require.Len(t, ev.Citations, 2)
	assert.Equal(t, budget.Id, ev.Citations[0].ReportId)
	assert.Equal(t, "pricing", ev.Citations[0].SectionSlug)
	assert.InDelta(t, 0.93, ev.Citations[0].Similarity, 1e-9)
	assert.Equal(t, fitness.Id, ev.Citations[1].ReportId)
	assert.Equal(t, "", ev.Citations[1].SectionSlug)
	assert.False(t, ev.LowEvidence)
}

func TestAssembleIsDeterministicAcrossInputOrder(t *testing.T) {
	a := &entity.Report{Id: uuid.New(), Title: "A"}
	b := &entity.Report{Id: uuid.New(), Title: "B"}

	forward := []*retrieve.Match{
		match(a, "s1", "H1", "one", 0, 0.9),
		match(a, "s2", "H2", "two", 1, 0.7),
		match(b, "s3", "H3", "three", 0, 0.8),
	}
	reversed := []*retrieve.Match{forward[2], forward[1], forward[0]}

	first := Assemble(forward, 0.35)
	second := Assemble(reversed, 0.35)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, len(first.Citations), len(second.Citations))
	for i := range first.Citations {
		assert.Equal(t, *first.Citations[i], *second.Citations[i])
	}
}

func TestAssembleEqualSimilarityTieBreaksOnReportId(t *testing.T) {
	low := &entity.Report{Id: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Title: "Low"}
	high := &entity.Report{Id: uuid.MustParse("ffffffff-0000-0000-0000-000000000001"), Title: "High"}

	matches := []*retrieve.Match{
		match(high, "s", "H", "x", 0, 0.8),
		match(low, "s", "H", "y", 0, 0.8),
	}

	ev := Assemble(matches, 0.35)
	require.Len(t, ev.Citations, 2)
	assert.Equal(t, low.Id, ev.Citations[0].ReportId)
	assert.Equal(t, high.Id, ev.Citations[1].ReportId)
}

func TestAssembleConfidenceFloorDropsWeakMatches(t *testing.T) {
	report := &entity.Report{Id: uuid.New(), Title: "App"}

	matches := []*retrieve.Match{
		match(report, "strong", "Strong", "kept", 0, 0.80),
		match(report, "weak", "Weak", "dropped", 1, 0.40),
	}

	ev := Assemble(matches, 0.60)
	require.Len(t, ev.Citations, 1)
	assert.NotContains(t, ev.Text, "dropped")
	assert.Contains(t, ev.Text, "kept")
	assert.True(t, ev.LowEvidence)
}

func TestAssembleLowEvidenceFlag(t *testing.T) {
	report := &entity.Report{Id: uuid.New(), Title: "App"}

	two := []*retrieve.Match{
		match(report, "a", "A", "x", 0, 0.9),
		match(report, "b", "B", "y", 1, 0.8),
	}
	assert.True(t, Assemble(two, 0.35).LowEvidence)

	three := append(two, match(report, "c", "C", "z", 2, 0.7))
	assert.False(t, Assemble(three, 0.35).LowEvidence)
}

func TestAssembleEmptyInput(t *testing.T) {
	ev := Assemble(nil, 0.35)
	assert.Empty(t, ev.Text)
	assert.Empty(t, ev.Citations)
	assert.True(t, ev.LowEvidence)
}

func TestAssembleExcerptCappedAtRuneBoundary(t *testing.T) {
	report := &entity.Report{Id: uuid.New(), Title: "App"}
	long := strings.Repeat("é", 300)

	ev := Assemble([]*retrieve.Match{match(report, "s", "H", long, 0, 0.9)}, 0.35)
	require.Len(t, ev.Citations, 1)
	assert.Equal(t, 200, len([]rune(ev.Citations[0].Excerpt)))
	assert.Equal(t, strings.Repeat("é", 200), ev.Citations[0].Excerpt)
}
