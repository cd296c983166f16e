// Package server exposes the reverse-prompt action as a language server.
package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"reprompt/internal/assistant"
	"reprompt/internal/config"
	"reprompt/internal/journal"
	"reprompt/internal/llm"
	"reprompt/internal/manager"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

var log = commonlog.GetLogger("reprompt.server")

const (
	Name = "reprompt"

	// CommandGenerate writes a reverse prompt below the cursor of a document.
	CommandGenerate = "reprompt.generate"
)

type Options struct {
	// SettingsPath defaults to config.DefaultPath.
	SettingsPath string
	// JournalDir defaults to config.StateDir.
	JournalDir string
	// Provider defaults to llm.NewDefault.
	Provider llm.Provider
	Version  string
	Debug    bool
}

type Server struct {
	opts      Options
	handler   *protocol.Handler
	manager   *manager.DocumentManager
	assistant *assistant.Assistant
	notifier  *notifier

	mu             sync.Mutex
	root           string
	clientSettings any
	watcher        *config.Watcher
	journal        *journal.Journal

	ctx    context.Context
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

func newServer(opts Options) *Server {
	if opts.Provider == nil {
		opts.Provider = llm.NewDefault()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		opts:     opts,
		manager:  manager.NewDocumentManager(),
		notifier: &notifier{},
		ctx:      ctx,
		cancel:   cancel,
	}
	s.assistant = assistant.New(opts.Provider, s.notifier)
	s.handler = &protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.textDocumentDidOpen,
		TextDocumentDidChange:           s.textDocumentDidChange,
		TextDocumentDidClose:            s.textDocumentDidClose,
		TextDocumentCodeAction:          s.textDocumentCodeAction,
		WorkspaceExecuteCommand:         s.workspaceExecuteCommand,
		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
	}
	return s
}

func NewServer(opts Options) (*server.Server, error) {
	s := newServer(opts)
	return server.NewServer(s.handler, Name, opts.Debug), nil
}

// URItoPath returns the path of a document URI relative to the workspace
// root, or its absolute path when it lies outside the root.
func (s *Server) URItoPath(noteuri protocol.DocumentUri) (string, error) {
	uri, err := url.Parse(noteuri)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri: %w", err)
	}

	s.mu.Lock()
	rootURI := s.root
	s.mu.Unlock()
	if rootURI == "" {
		return uri.Path, nil
	}

	root, err := url.Parse(rootURI)
	if err != nil {
		return "", fmt.Errorf("failed to parse root uri: %w", err)
	}

	rootPath := strings.TrimRight(root.Path, "/") + "/"
	if uri.Scheme != root.Scheme || uri.Host != root.Host || !strings.HasPrefix(uri.Path, rootPath) {
		return uri.Path, nil
	}
	return strings.TrimPrefix(uri.Path, rootPath), nil
}
