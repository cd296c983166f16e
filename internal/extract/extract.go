// Package extract picks the slice of a document that is sent to the model.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultPattern matches markdown headings and horizontal rules of three or
// more dashes at the start of a line.
const DefaultPattern = `(?im)^(#+|-{3,})`

// Fallback decides what is extracted when no divider precedes the cursor.
type Fallback string

const (
	// FallbackPrefix extracts everything from the start of the document.
	FallbackPrefix Fallback = "prefix"
	// FallbackEmpty extracts nothing.
	FallbackEmpty Fallback = "empty"
)

func (f Fallback) Valid() bool {
	return f == FallbackPrefix || f == FallbackEmpty
}

type Extractor struct {
	pattern *regexp.Regexp

	// IncludeDivider keeps the divider token at the start of the slice.
	IncludeDivider bool
	Fallback       Fallback
}

// New compiles pattern into an Extractor that keeps the divider token and
// falls back to the document prefix.
func New(pattern string) (*Extractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid divider pattern %q: %w", pattern, err)
	}
	return &Extractor{
		pattern:        re,
		IncludeDivider: true,
		Fallback:       FallbackPrefix,
	}, nil
}

func (e *Extractor) Pattern() string {
	return e.pattern.String()
}

type Input struct {
	Text string
	// Cursor is a byte offset into Text.
	Cursor    int
	Selection string

	IncludePath bool
	Path        string
}

// Extract returns the selection when there is one, and the slice around the
// cursor otherwise. With IncludePath, a line naming the source is put in
// front of a non-empty result.
func (e *Extractor) Extract(in Input) string {
	body := in.Selection
	if body == "" {
		body = e.Slice(in.Text, in.Cursor)
	}
	if body == "" || !in.IncludePath || in.Path == "" {
		return body
	}
	return "Source: " + in.Path + "\n\n" + body
}

// Slice returns the text between the nearest divider before cursor that
// has non-blank content after it, and the cursor.
func (e *Extractor) Slice(text string, cursor int) string {
	cursor = clamp(text, cursor)
	if cursor == 0 {
		return ""
	}

	matches := e.pattern.FindAllStringIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][0], matches[i][1]
		// A divider must sit strictly behind the cursor.
		if start >= cursor || end > cursor {
			continue
		}
		if strings.TrimSpace(text[end:cursor]) == "" {
			continue
		}
		if e.IncludeDivider {
			return text[start:cursor]
		}
		return text[end:cursor]
	}

	if e.Fallback == FallbackEmpty {
		return ""
	}
	return text[:cursor]
}

func clamp(text string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > len(text) {
		return len(text)
	}
	for cursor > 0 && cursor < len(text) && !utf8.RuneStart(text[cursor]) {
		cursor--
	}
	return cursor
}
