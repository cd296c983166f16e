package editor

import (
	"strings"
	"unicode/utf8"

	lsp "github.com/tliron/glsp/protocol_3_16"
)

// PositionToOffset computes the byte offset of an LSP Position within document.
// Lines past the end clamp to the last line, columns past the end of a line
// clamp to its last byte.
func PositionToOffset(document string, pos lsp.Position) int {
	lines := strings.Split(document, "\n")
	// Clamp line number
	if int(pos.Line) >= len(lines) {
		pos.Line = uint32(len(lines) - 1)
		pos.Character = ^uint32(0)
	}
	offset := 0
	for i := uint32(0); i < pos.Line; i++ {
		offset += len(lines[i]) + 1
	}
	// LSP columns count UTF-16 code units
	var charCount, byteCount int
	for _, r := range lines[pos.Line] {
		unitCount := 1
		if r > 0xFFFF {
			unitCount = 2
		}
		if uint32(charCount+unitCount) > pos.Character {
			break
		}
		charCount += unitCount
		byteCount += utf8.RuneLen(r)
	}
	return offset + byteCount
}

// OffsetToPosition converts a byte offset into an LSP Position.
func OffsetToPosition(document string, offset int) lsp.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(document) {
		offset = len(document)
	}
	prefix := document[:offset]
	line := strings.Count(prefix, "\n")
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		prefix = prefix[i+1:]
	}
	return lsp.Position{Line: uint32(line), Character: utf16Len(prefix)}
}

// Advance returns the position right after text when it is inserted at start.
func Advance(start lsp.Position, text string) lsp.Position {
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	if len(lines) == 1 {
		return lsp.Position{Line: start.Line, Character: start.Character + utf16Len(last)}
	}
	return lsp.Position{Line: start.Line + uint32(len(lines)-1), Character: utf16Len(last)}
}

// ApplyChange applies a single incremental LSP edit to document.
func ApplyChange(change lsp.TextDocumentContentChangeEvent, document string) string {
	if change.Range == nil {
		return change.Text
	}
	startOffset := PositionToOffset(document, change.Range.Start)
	endOffset := PositionToOffset(document, change.Range.End)
	if endOffset < startOffset {
		startOffset, endOffset = endOffset, startOffset
	}
	// LSP always splits at code-unit boundaries, and PositionToOffset
	// respects that, so both offsets sit on rune boundaries.
	return document[:startOffset] + change.Text + document[endOffset:]
}

// Less reports whether a sits before b.
func Less(a, b lsp.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

func utf16Len(s string) uint32 {
	var n uint32
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
