package evidence

import (
	"fmt"
	"sort"
	"strings"

	"review-insights-be/pkg/insight/retrieve"

	"github.com/google/uuid"
)

// CitationMatch is one surviving section behind a citation.
type CitationMatch struct {
	SectionSlug string
	Heading     string
	Excerpt     string
	Similarity  float64
}

// Citation points a reader back at the report sections that grounded the
// answer. One citation per report; SectionSlug, Excerpt and Similarity
// carry the best match for compact rendering, Matches lists every
// surviving section in ranked order.
type Citation struct {
	ReportId          uuid.UUID
	ReportTitle       string
	ReportDescription string
	SectionSlug       string
	Excerpt           string
	Similarity        float64
	Matches           []CitationMatch
}

// Evidence is the grounding block handed to the answer generator. Text is
// byte-stable for a given match set so that repeated questions over an
// unchanged index produce identical prompts.
type Evidence struct {
	Text        string
	Citations   []*Citation
	LowEvidence bool
}

const (
	lowEvidenceFloor = 3
	excerptMaxRunes  = 200
)

type reportGroup struct {
	reportId    uuid.UUID
	title       string
	description string
	matches     []*retrieve.Match
}

// Assemble filters matches by the confidence floor and builds the grounding
// block. The floor must be at least the retriever's section threshold so
// assembly can only tighten, never loosen, what retrieval admitted.
func Assemble(matches []*retrieve.Match, confidenceFloor float64) *Evidence {
	kept := make([]*retrieve.Match, 0, len(matches))
	for _, m := range matches {
		if m.SectionSimilarity >= confidenceFloor {
			kept = append(kept, m)
		}
	}

	groups := groupByReport(kept)

	var text strings.Builder
	citations := make([]*Citation, 0, len(groups))
	for _, g := range groups {
		writeReportEvidence(&text, g)
		best := g.matches[0]
		sectionMatches := make([]CitationMatch, 0, len(g.matches))
		for _, m := range g.matches {
			sectionMatches = append(sectionMatches, CitationMatch{
				SectionSlug: m.Section.Slug,
				Heading:     m.Section.Heading,
				Excerpt:     excerpt(m.Section.Content),
				Similarity:  m.SectionSimilarity,
			})
		}
		citations = append(citations, &Citation{
			ReportId:          g.reportId,
			ReportTitle:       g.title,
			ReportDescription: g.description,
			SectionSlug:       best.Section.Slug,
			Excerpt:           excerpt(best.Section.Content),
			Similarity:        best.SectionSimilarity,
			Matches:           sectionMatches,
		})
	}

	return &Evidence{
		Text:        text.String(),
		Citations:   citations,
		LowEvidence: len(kept) < lowEvidenceFloor,
	}
}

// groupByReport buckets matches per report with a total order: reports by
// best section similarity descending then id ascending, sections within a
// report by similarity descending then position ascending. The order is the
// determinism guarantee, keep it stable.
func groupByReport(matches []*retrieve.Match) []*reportGroup {
	byId := make(map[uuid.UUID]*reportGroup)
	for _, m := range matches {
		g, ok := byId[m.Report.Id]
		if !ok {
			g = &reportGroup{reportId: m.Report.Id, title: m.Report.Title, description: m.Report.Description}
			byId[m.Report.Id] = g
		}
		g.matches = append(g.matches, m)
	}

	groups := make([]*reportGroup, 0, len(byId))
	for _, g := range byId {
		sort.SliceStable(g.matches, func(i, j int) bool {
			if g.matches[i].SectionSimilarity != g.matches[j].SectionSimilarity {
				return g.matches[i].SectionSimilarity > g.matches[j].SectionSimilarity
			}
			return g.matches[i].Section.Position < g.matches[j].Section.Position
		})
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].matches[0], groups[j].matches[0]
		if a.SectionSimilarity != b.SectionSimilarity {
			return a.SectionSimilarity > b.SectionSimilarity
		}
		return groups[i].reportId.String() < groups[j].reportId.String()
	})
	return groups
}

func writeReportEvidence(text *strings.Builder, g *reportGroup) {
	fmt.Fprintf(text, "## Report: %s\n", g.title)
	for _, m := range g.matches {
		heading := m.Section.Heading
		if heading == "" {
			heading = "(preamble)"
		}
		fmt.Fprintf(text, "### %s (relevance %.4f)\n%s\n", heading, m.SectionSimilarity, m.Section.Content)
	}
	text.WriteString("\n")
}

func excerpt(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= excerptMaxRunes {
		return string(runes)
	}
	return string(runes[:excerptMaxRunes])
}
