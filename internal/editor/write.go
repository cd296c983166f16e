package editor

import (
	"context"
	"fmt"
	"strings"

	lsp "github.com/tliron/glsp/protocol_3_16"
)

// Stream is a finite sequence of response fragments.
type Stream interface {
	Fragments() <-chan string
	// Err blocks until the stream has finished and returns its terminal error.
	Err() error
	Cancel()
}

// Write streams a response into ed at the cursor.
//
// The response always starts on an empty line: when a selection exists the
// cursor first moves to its furthest endpoint, and a non-empty cursor line
// is ended with a newline. prefix is written before the first fragment and
// postfix after the stream is exhausted. Nothing is written when the stream
// fails before producing a fragment; text written before a later failure is
// left in place. Write returns the concatenated fragments.
func Write(ctx context.Context, ed Editor, s Stream, prefix, postfix string) (string, error) {
	var response strings.Builder
	started := false
	start := func() error {
		if started {
			return nil
		}
		started = true
		if err := openLine(ctx, ed); err != nil {
			return err
		}
		return insert(ctx, ed, prefix)
	}

	for fragment := range s.Fragments() {
		if err := start(); err != nil {
			s.Cancel()
			return response.String(), err
		}
		if err := insert(ctx, ed, fragment); err != nil {
			s.Cancel()
			return response.String(), err
		}
		response.WriteString(fragment)
	}
	if err := s.Err(); err != nil {
		return response.String(), err
	}
	if err := start(); err != nil {
		return response.String(), err
	}
	return response.String(), insert(ctx, ed, postfix)
}

func openLine(ctx context.Context, ed Editor) error {
	if ed.HasSelection() {
		var end lsp.Position
		for _, r := range ed.Selections() {
			if r.Start == r.End {
				continue
			}
			if Less(end, r.Start) {
				end = r.Start
			}
			if Less(end, r.End) {
				end = r.End
			}
		}
		ed.SetCursor(end)
	}

	cursor := ed.Cursor()
	line := ed.Line(int(cursor.Line))
	if line == "" {
		return nil
	}
	ed.SetCursor(lsp.Position{Line: cursor.Line, Character: utf16Len(line)})
	if err := ed.InsertAtCursor(ctx, "\n"); err != nil {
		return fmt.Errorf("failed to open a new line: %w", err)
	}
	return nil
}

func insert(ctx context.Context, ed Editor, text string) error {
	if text == "" {
		return nil
	}
	return ed.InsertAtCursor(ctx, text)
}
