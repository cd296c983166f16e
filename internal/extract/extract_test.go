package extract_test

import (
	"strings"
	"testing"

	"reprompt/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor(t *testing.T) *extract.Extractor {
	t.Helper()
	e, err := extract.New(extract.DefaultPattern)
	require.NoError(t, err)
	return e
}

func TestSliceWithoutDividers(t *testing.T) {
	text := "Just some thoughts\nabout writing.\nMore text here."
	e := newExtractor(t)

	for c := 0; c <= len(text); c++ {
		assert.Equal(t, text[:c], e.Slice(text, c), "cursor %d", c)
	}

	e.Fallback = extract.FallbackEmpty
	for c := 0; c <= len(text); c++ {
		assert.Equal(t, "", e.Slice(text, c), "cursor %d", c)
	}
}

func TestSliceFromNearestDivider(t *testing.T) {
	text := "intro text\n# Heading\nbody of the section\n"
	cursor := len(text)
	e := newExtractor(t)

	assert.Equal(t, "# Heading\nbody of the section\n", e.Slice(text, cursor))

	e.IncludeDivider = false
	assert.Equal(t, " Heading\nbody of the section\n", e.Slice(text, cursor))
}

func TestSliceNeverCrossesDivider(t *testing.T) {
	text := "before\n---\nafter the rule"
	e := newExtractor(t)
	got := e.Slice(text, len(text))
	assert.Equal(t, "---\nafter the rule", got)
	assert.NotContains(t, got, "before")
}

func TestSlicePicksClosestQualifyingDivider(t *testing.T) {
	text := "# One\nfirst\n## Two\nsecond\n### Three\n"
	e := newExtractor(t)

	// The title after "###" counts as content.
	assert.Equal(t, "### Three\n", e.Slice(text, len(text)))

	// Cursor right after "## Two\nsecond".
	cursor := strings.Index(text, "### Three")
	assert.Equal(t, "## Two\nsecond\n", e.Slice(text, cursor))
}

func TestSliceSkipsDividerWithBlankContent(t *testing.T) {
	text := "# Title\nsome content\n---\n   \n"
	e := newExtractor(t)
	assert.Equal(t, "# Title\nsome content\n---\n   \n", e.Slice(text, len(text)))
}

func TestSliceDividerAtCursorIsDisqualified(t *testing.T) {
	text := "# Title\ncontent\n## Next"
	cursor := strings.Index(text, "## Next")
	e := newExtractor(t)
	assert.Equal(t, "# Title\ncontent\n", e.Slice(text, cursor))
}

func TestSliceEdgeCases(t *testing.T) {
	e := newExtractor(t)
	assert.Equal(t, "", e.Slice("", 0))
	assert.Equal(t, "", e.Slice("", 10))
	assert.Equal(t, "", e.Slice("# Title\ntext", 0))
	assert.Equal(t, "# Title\ntext", e.Slice("# Title\ntext", 999))
	assert.Equal(t, "", e.Slice("# Title\ntext", -3))

	// Cursor in the middle of "é" moves back to the rune start.
	assert.Equal(t, "caf", e.Slice("café", 4))
}

func TestExtractSelectionWins(t *testing.T) {
	text := "# Title\nsome content\n---\nmore"
	e := newExtractor(t)
	got := e.Extract(extract.Input{Text: text, Cursor: len(text), Selection: "some content"})
	assert.Equal(t, "some content", got)
}

func TestExtractIncludePath(t *testing.T) {
	text := "# Title\nsome content"
	e := newExtractor(t)

	got := e.Extract(extract.Input{Text: text, Cursor: len(text), IncludePath: true, Path: "notes/idea.md"})
	assert.Equal(t, "Source: notes/idea.md\n\n# Title\nsome content", got)

	got = e.Extract(extract.Input{Text: text, Selection: "content", IncludePath: true, Path: "notes/idea.md"})
	assert.Equal(t, "Source: notes/idea.md\n\ncontent", got)

	got = e.Extract(extract.Input{Text: "", Cursor: 0, IncludePath: true, Path: "notes/idea.md"})
	assert.Equal(t, "", got)
}

func TestNewRejectsMalformedPattern(t *testing.T) {
	_, err := extract.New(`^(#+`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid divider pattern")
}

func TestFallbackValid(t *testing.T) {
	assert.True(t, extract.FallbackPrefix.Valid())
	assert.True(t, extract.FallbackEmpty.Valid())
	assert.False(t, extract.Fallback("whole").Valid())
}
