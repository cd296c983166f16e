package server

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"reprompt/internal/assistant"
	"reprompt/internal/editor"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// generateArgs is the single argument of CommandGenerate.
type generateArgs struct {
	URI protocol.DocumentUri `json:"uri"`
	// Position is the cursor. It defaults to the end of the document.
	Position   *protocol.Position `json:"position,omitempty"`
	Selections []protocol.Range   `json:"selections,omitempty"`
}

func parseGenerateArgs(arguments []any) (generateArgs, error) {
	var args generateArgs
	if len(arguments) == 0 {
		return args, fmt.Errorf("%s: missing arguments", CommandGenerate)
	}
	data, err := json.Marshal(arguments[0])
	if err != nil {
		return args, fmt.Errorf("%s: %w", CommandGenerate, err)
	}
	if err := json.Unmarshal(data, &args); err != nil {
		return args, fmt.Errorf("%s: invalid arguments: %w", CommandGenerate, err)
	}
	if args.URI == "" {
		return args, fmt.Errorf("%s: missing uri", CommandGenerate)
	}
	return args, nil
}

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	s.notifier.attach(context.Notify)

	switch params.Command {
	case CommandGenerate:
		args, err := parseGenerateArgs(params.Arguments)
		if err != nil {
			return nil, err
		}
		ed, src, err := s.prepare(args, context.Call)
		if err != nil {
			return nil, err
		}

		// Edits are applied with workspace/applyEdit, whose responses are
		// only read once this handler has returned.
		s.runs.Add(1)
		go func() {
			defer s.runs.Done()
			s.assistant.ReversePrompt(s.ctx, ed, src)
		}()
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
}

func (s *Server) prepare(args generateArgs, call glsp.CallFunc) (*lspEditor, assistant.Source, error) {
	src := assistant.Source{URI: args.URI}

	path, err := s.URItoPath(args.URI)
	if err != nil {
		return nil, src, err
	}
	src.Path = path

	text, err := s.manager.GetDocument(args.URI)
	if err != nil {
		// Not synced by the client; fall back to the file on disk.
		text, err = readURI(args.URI)
		if err != nil {
			return nil, src, err
		}
	}

	ed := newLSPEditor(args.URI, text, call)
	if args.Position != nil {
		ed.SetCursor(*args.Position)
	} else {
		ed.SetCursor(editor.OffsetToPosition(text, len(text)))
	}
	if len(args.Selections) > 0 {
		ed.Select(args.Selections...)
	}
	return ed, src, nil
}

func readURI(uri protocol.DocumentUri) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("document %s is not open", uri)
	}
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return "", fmt.Errorf("document %s is not open: %w", uri, err)
	}
	return string(data), nil
}

func (s *Server) textDocumentCodeAction(
	context *glsp.Context,
	params *protocol.CodeActionParams,
) (any, error) {
	if !wantsSource(params.Context.Only) {
		return nil, nil
	}

	args := generateArgs{
		URI:      params.TextDocument.URI,
		Position: &params.Range.End,
	}
	if params.Range.Start != params.Range.End {
		args.Selections = []protocol.Range{params.Range}
	}

	kind := protocol.CodeActionKindSource
	title := "Generate reverse prompt"
	return []protocol.CodeAction{{
		Title: title,
		Kind:  &kind,
		Command: &protocol.Command{
			Title:     title,
			Command:   CommandGenerate,
			Arguments: []any{args},
		},
	}}, nil
}

func wantsSource(only []protocol.CodeActionKind) bool {
	if len(only) == 0 {
		return true
	}
	for _, kind := range only {
		if kind == protocol.CodeActionKindSource {
			return true
		}
	}
	return false
}
