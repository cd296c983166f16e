// Package editor abstracts the host editor a reverse prompt is written into.
package editor

import (
	"context"

	lsp "github.com/tliron/glsp/protocol_3_16"
)

// Editor is the view of an open document the assistant works through.
// Positions use LSP coordinates; offsets are byte offsets into Text.
type Editor interface {
	Text() string
	Cursor() lsp.Position
	SetCursor(pos lsp.Position)

	// Selection returns the text of the primary selection.
	Selection() string
	HasSelection() bool
	Selections() []lsp.Range

	OffsetToPosition(offset int) lsp.Position
	PositionToOffset(pos lsp.Position) int

	// Line returns the text of a line without its trailing newline.
	Line(line int) string

	// InsertAtCursor inserts text at the cursor and moves the cursor
	// to the end of the inserted text.
	InsertAtCursor(ctx context.Context, text string) error
}
