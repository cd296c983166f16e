package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	s.manager.Open(params.TextDocument.URI, params.TextDocument.Version, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	return s.manager.ApplyChanges(
		params.TextDocument.URI,
		params.TextDocument.Version,
		params.ContentChanges,
	)
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	s.manager.Release(params.TextDocument.URI)
	return nil
}
