package server

import (
	"fmt"
	"time"

	"reprompt/internal/config"
	"reprompt/internal/journal"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	s.notifier.attach(context.Notify)

	// Root
	s.mu.Lock()
	if params.RootURI != nil {
		s.root = *params.RootURI
	}
	s.clientSettings = params.InitializationOptions
	s.mu.Unlock()

	// Settings: file first, client options on top.
	settingsPath, err := s.settingsPath()
	if err != nil {
		return nil, err
	}
	s.reload(config.LoadFile(settingsPath))

	watcher, err := config.Watch(settingsPath, s.reload)
	if err != nil {
		log.Warningf("settings will not be reloaded: %v", err)
	} else {
		s.mu.Lock()
		s.watcher = watcher
		s.mu.Unlock()
	}

	// Journal
	if j, err := s.openJournal(); err != nil {
		log.Warningf("journal disabled: %v", err)
	} else {
		s.mu.Lock()
		s.journal = j
		s.mu.Unlock()
		s.assistant.SetRecorder(j)
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandGenerate},
	}

	version := s.opts.Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("client initialized")
	if _, err := s.assistant.Settings(); err != nil {
		s.notifier.Error(fmt.Sprintf("reprompt settings are invalid: %v", err))
	}
	return nil
}

// shutdownTimeout bounds how long shutdown waits for cancelled runs.
var shutdownTimeout = 5 * time.Second

func (s *Server) shutdown(context *glsp.Context) error {
	s.cancel()
	if !s.waitRuns(shutdownTimeout) {
		log.Warningf("generation still running after %s, closing anyway", shutdownTimeout)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.journal != nil {
		s.assistant.SetRecorder(nil)
		if err := s.journal.Close(); err != nil {
			log.Errorf("failed to close journal: %v", err)
		}
		s.journal = nil
	}
	s.manager.CloseAll()
	return nil
}

// waitRuns waits for running generations and reports whether they all
// finished within timeout. Requests are handled one at a time, so a handler
// must never wait on a run without a bound.
func (s *Server) waitRuns(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	s.notifier.attach(context.Notify)

	settings := params.Settings
	// Clients commonly nest their section under the server name.
	if m, ok := settings.(map[string]any); ok {
		if section, ok := m[Name]; ok {
			settings = section
		}
	}

	s.mu.Lock()
	s.clientSettings = settings
	s.mu.Unlock()

	path, err := s.settingsPath()
	if err != nil {
		return err
	}
	s.reload(config.LoadFile(path))
	return nil
}

// reload merges the client settings over the file settings and hands the
// result to the assistant.
func (s *Server) reload(file config.Settings, err error) {
	if err != nil {
		s.assistant.Invalidate(err)
		s.notifier.Error(fmt.Sprintf("reprompt settings: %v", err))
		return
	}

	s.mu.Lock()
	client := s.clientSettings
	s.mu.Unlock()

	merged, err := config.Merge(file, client)
	if err != nil {
		s.assistant.Invalidate(err)
		s.notifier.Error(fmt.Sprintf("reprompt settings: %v", err))
		return
	}
	if err := s.assistant.Configure(merged); err != nil {
		s.notifier.Error(fmt.Sprintf("reprompt settings: %v", err))
		return
	}
	log.Infof("settings loaded (model %s)", merged.Model)
}

func (s *Server) settingsPath() (string, error) {
	if s.opts.SettingsPath != "" {
		return s.opts.SettingsPath, nil
	}
	return config.DefaultPath()
}

func (s *Server) openJournal() (*journal.Journal, error) {
	dir := s.opts.JournalDir
	if dir == "" {
		var err error
		if dir, err = config.StateDir(); err != nil {
			return nil, err
		}
	}
	return journal.OpenDir(dir)
}
