package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf8"
)

// ExcludedHeading is the administrative section label that never gets indexed.
// It carries no retrievable content (it is a store-page backlink).
const ExcludedHeading = "Original App Link"

// ErrInvalidInput indicates the report body is not textual (binary or
// malformed encoding). Segmentation aborts for that report only.
var ErrInvalidInput = errors.New("segment: body is not valid text")

// Section is a heading-delimited, independently retrievable unit of a report.
// A report's content before the first heading becomes the preamble section
// with an empty slug and heading.
type Section struct {
	Slug     string
	Heading  string
	Content  string
	Position int
}

// Segment splits a markdown report body into ordered sections at heading
// boundaries and returns the checksum of the raw body.
//
// The checksum is computed over the body exactly as received, before any
// normalization, so it reflects what would be re-embedded on the next run.
// An empty body yields zero sections and the checksum of the empty string.
func Segment(body string) (string, []Section, error) {
	if !utf8.ValidString(body) || strings.ContainsRune(body, 0) {
		return "", nil, ErrInvalidInput
	}

	checksum := Checksum(body)

	if strings.TrimSpace(body) == "" {
		return checksum, nil, nil
	}

	runs := splitRuns(body)

	slugger := NewSlugger()
	sections := make([]Section, 0, len(runs))
	for _, run := range runs {
		content := normalizeRun(run.lines, run.headingLevel, run.headingText)
		if content == "" {
			continue
		}
		if run.headingText != "" && strings.EqualFold(strings.TrimSpace(run.headingText), ExcludedHeading) {
			continue
		}

		section := Section{
			Heading:  run.headingText,
			Content:  content,
			Position: len(sections),
		}
		if run.headingText != "" {
			section.Slug = slugger.Slug(run.headingText)
		}
		sections = append(sections, section)
	}

	return checksum, sections, nil
}

// Checksum returns the hex-encoded SHA-256 of the raw body.
func Checksum(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

type run struct {
	headingLevel int
	headingText  string
	lines        []string
}

// splitRuns walks the body line by line and starts a new run at every ATX
// heading outside fenced code blocks. Content before the first heading is
// its own run with no heading.
func splitRuns(body string) []run {
	lines := strings.Split(body, "\n")

	var runs []run
	current := run{}
	inFence := false
	fenceMarker := ""

	flush := func() {
		if len(current.lines) > 0 || current.headingText != "" {
			runs = append(runs, current)
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inFence {
			current.lines = append(current.lines, line)
			if strings.HasPrefix(trimmed, fenceMarker) {
				inFence = false
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = true
			fenceMarker = trimmed[:3]
			current.lines = append(current.lines, line)
			continue
		}

		if level, text, ok := parseHeading(trimmed); ok {
			flush()
			current = run{headingLevel: level, headingText: text}
			continue
		}

		current.lines = append(current.lines, line)
	}
	flush()

	return runs
}

// parseHeading recognizes ATX headings (1-6 leading '#' followed by a space)
// and extracts the heading text, stripping optional closing '#' runs.
func parseHeading(line string) (int, string, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level == len(line) {
		return 0, "", false
	}
	if line[level] != ' ' && line[level] != '\t' {
		return 0, "", false
	}
	text := strings.TrimSpace(line[level:])
	if stripped := strings.TrimRight(text, "#"); stripped != text {
		// A trailing '#' run only closes the heading when a space
		// precedes it; "Using C#" keeps its '#'.
		if trimmed := strings.TrimRight(stripped, " \t"); trimmed != stripped || stripped == "" {
			text = trimmed
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, "", false
	}
	return level, text, true
}

// normalizeRun re-serializes a run as normalized markdown: the heading is
// rebuilt from its parsed text, line trailing whitespace is dropped, and
// blank-line runs collapse to a single separator. Downstream embeddings see
// this normalized form, so formatting variance does not change vectors.
func normalizeRun(lines []string, headingLevel int, headingText string) string {
	var b strings.Builder

	if headingText != "" {
		b.WriteString(strings.Repeat("#", headingLevel))
		b.WriteString(" ")
		b.WriteString(headingText)
	}

	body := normalizeLines(lines)
	if body != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(body)
	}

	return b.String()
}

func normalizeLines(lines []string) string {
	out := make([]string, 0, len(lines))
	blankPending := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			blankPending = len(out) > 0
			continue
		}
		if blankPending {
			out = append(out, "")
			blankPending = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
