package editor

import (
	"context"
	"strings"
	"sync"

	lsp "github.com/tliron/glsp/protocol_3_16"
)

// Buffer is an in-memory Editor.
type Buffer struct {
	mu         sync.Mutex
	text       string
	cursor     lsp.Position
	selections []lsp.Range
}

// NewBuffer creates a Buffer holding text with the cursor at the start.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *Buffer) Cursor() lsp.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// SetCursor moves the cursor and drops any selection.
func (b *Buffer) SetCursor(pos lsp.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = OffsetToPosition(b.text, PositionToOffset(b.text, pos))
	b.selections = nil
}

// Select replaces the selections. Each range is normalized so that Start
// precedes End; the cursor moves to the end of the last range.
func (b *Buffer) Select(ranges ...lsp.Range) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selections = b.selections[:0]
	for _, r := range ranges {
		if Less(r.End, r.Start) {
			r.Start, r.End = r.End, r.Start
		}
		b.selections = append(b.selections, r)
		b.cursor = r.End
	}
}

// Selection returns the text of the first non-empty selection. Empty ranges
// are carets and select nothing.
func (b *Buffer) Selection() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.selections {
		if r.Start == r.End {
			continue
		}
		return b.text[PositionToOffset(b.text, r.Start):PositionToOffset(b.text, r.End)]
	}
	return ""
}

func (b *Buffer) HasSelection() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.selections {
		if r.Start != r.End {
			return true
		}
	}
	return false
}

func (b *Buffer) Selections() []lsp.Range {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]lsp.Range, len(b.selections))
	copy(out, b.selections)
	return out
}

func (b *Buffer) OffsetToPosition(offset int) lsp.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return OffsetToPosition(b.text, offset)
}

func (b *Buffer) PositionToOffset(pos lsp.Position) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return PositionToOffset(b.text, pos)
}

func (b *Buffer) Line(line int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := strings.Split(b.text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}

func (b *Buffer) InsertAtCursor(_ context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	offset := PositionToOffset(b.text, b.cursor)
	b.text = b.text[:offset] + text + b.text[offset:]
	b.cursor = Advance(b.cursor, text)
	b.selections = nil
	return nil
}
