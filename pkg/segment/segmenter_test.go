package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentChecksumMatchesRawBody(t *testing.T) {
	body := "# Summary\n\nSome findings.\n"
	sum := sha256.Sum256([]byte(body))

	checksum, _, err := Segment(body)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:]), checksum)
}

func TestSegmentEmptyBody(t *testing.T) {
	checksum, sections, err := Segment("")
	require.NoError(t, err)
	assert.Empty(t, sections)
	assert.Equal(t, Checksum(""), checksum)
}

func TestSegmentInvalidInput(t *testing.T) {
	_, _, err := Segment("report\x00body")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = Segment(string([]byte{0xff, 0xfe, 0xfd}))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSegmentPreambleBeforeFirstHeading(t *testing.T) {
	body := "Intro paragraph.\n\n# Summary\n\nContent A\n"

	_, sections, err := Segment(body)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, "", sections[0].Slug)
	assert.Equal(t, "", sections[0].Heading)
	assert.Equal(t, "Intro paragraph.", sections[0].Content)
	assert.Equal(t, 0, sections[0].Position)

	assert.Equal(t, "summary", sections[1].Slug)
	assert.Equal(t, "Summary", sections[1].Heading)
	assert.Equal(t, 1, sections[1].Position)
}

func TestSegmentExcludesAdministrativeHeading(t *testing.T) {
	body := "# Summary\n\nA\n\n## original app LINK\n\nhttps://example.com\n\n# Pain Points\n\nC\n"

	_, sections, err := Segment(body)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	for _, s := range sections {
		assert.NotEqual(t, "original-app-link", s.Slug)
	}
}

func TestSegmentClosingHashNeedsPrecedingSpace(t *testing.T) {
	body := "# Using C#\n\nlanguage notes\n\n# Closed Heading ##\n\nmore\n"

	_, sections, err := Segment(body)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	// A '#' glued to the text is part of the heading, not a closer.
	assert.Equal(t, "Using C#", sections[0].Heading)
	assert.Equal(t, "Closed Heading", sections[1].Heading)
}

func TestSegmentSlugDeduplication(t *testing.T) {
	body := "# Summary\n\nfirst\n\n# Summary\n\nsecond\n\n# Summary\n\nthird\n"

	_, sections, err := Segment(body)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "summary", sections[0].Slug)
	assert.Equal(t, "summary-1", sections[1].Slug)
	assert.Equal(t, "summary-2", sections[2].Slug)
}

func TestSegmentNormalizationIsStable(t *testing.T) {
	messy := "#   Summary   \n\n\n\nline one   \nline two\t\n\n\n"
	clean := "# Summary\n\nline one\nline two\n"

	_, messySections, err := Segment(messy)
	require.NoError(t, err)
	_, cleanSections, err := Segment(clean)
	require.NoError(t, err)

	require.Len(t, messySections, 1)
	require.Len(t, cleanSections, 1)
	assert.Equal(t, cleanSections[0].Content, messySections[0].Content)
}

func TestSegmentIgnoresHeadingsInsideCodeFences(t *testing.T) {
	body := "# Usage\n\n```\n# not a heading\n```\n\nafter fence\n"

	_, sections, err := Segment(body)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Content, "# not a heading")
}

func TestSegmentEndToEndExample(t *testing.T) {
	body := strings.Join([]string{
		"# Summary",
		"",
		"A",
		"",
		"# Original App Link",
		"",
		"B",
		"",
		"# Pain Points",
		"",
		"C",
		"",
	}, "\n")

	checksum, sections, err := Segment(body)
	require.NoError(t, err)
	assert.Equal(t, Checksum(body), checksum)

	require.Len(t, sections, 2)
	assert.Equal(t, "summary", sections[0].Slug)
	assert.Equal(t, "# Summary\n\nA", sections[0].Content)
	assert.Equal(t, "pain-points", sections[1].Slug)
	assert.Equal(t, "# Pain Points\n\nC", sections[1].Content)
}

func TestSluggerSuffixCollision(t *testing.T) {
	s := NewSlugger()
	assert.Equal(t, "summary-1", s.Slug("Summary 1"))
	assert.Equal(t, "summary", s.Slug("Summary"))
	// "Summary" repeated would produce summary-1, which is taken.
	assert.Equal(t, "summary-2", s.Slug("Summary"))
}
