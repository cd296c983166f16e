// Package assistant implements the "Generate Reverse Prompt" action.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"reprompt/internal/config"
	"reprompt/internal/editor"
	"reprompt/internal/extract"
	"reprompt/internal/journal"
	"reprompt/internal/llm"
	"reprompt/internal/prompt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("reprompt.assistant")

// Recorder stores finished runs.
type Recorder interface {
	Record(run journal.Run) (string, error)
}

// Source identifies the document a reverse prompt is generated for.
type Source struct {
	URI string
	// Path is shown to the model when include_path is set.
	Path string
}

type Assistant struct {
	seq      *prompt.Sequencer
	notifier prompt.Notifier
	recorder Recorder

	mu          sync.RWMutex
	settings    config.Settings
	extractor   *extract.Extractor
	settingsErr error
}

// New creates an Assistant using the default settings.
func New(provider llm.Provider, notifier prompt.Notifier) *Assistant {
	if notifier == nil {
		notifier = prompt.NopNotifier
	}
	a := &Assistant{
		seq:      prompt.NewSequencer(provider, notifier),
		notifier: notifier,
	}
	a.Configure(config.Default())
	return a
}

// SetRecorder sets where runs are recorded. A nil recorder disables it.
func (a *Assistant) SetRecorder(r Recorder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorder = r
}

// Configure replaces the settings. Invalid settings are kept but every
// generation is refused with the validation error until valid settings
// are configured.
func (a *Assistant) Configure(s config.Settings) error {
	e, err := s.Compile()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = s
	a.extractor = e
	a.settingsErr = err
	if err != nil {
		log.Infof("invalid settings: %v", err)
	}
	return err
}

// Invalidate refuses generation with err until Configure succeeds.
func (a *Assistant) Invalidate(err error) {
	if prompt.KindOf(err) == prompt.KindUnknown {
		err = prompt.Configuration("settings", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settingsErr = err
	log.Infof("settings invalidated: %v", err)
}

func (a *Assistant) Settings() (config.Settings, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings, a.settingsErr
}

func (a *Assistant) State() prompt.State {
	return a.seq.State()
}

// ReversePrompt extracts context from ed, asks the model for a question and
// writes it into ed below the cursor. It returns the model's response.
// Every failure is also shown to the user through the notifier.
func (a *Assistant) ReversePrompt(ctx context.Context, ed editor.Editor, src Source) (string, error) {
	a.mu.RLock()
	settings, extractor, settingsErr, recorder := a.settings, a.extractor, a.settingsErr, a.recorder
	a.mu.RUnlock()

	run := journal.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		URI:       src.URI,
		Model:     settings.Model,
	}

	response, err := a.generate(ctx, ed, src, settings, extractor, settingsErr, &run)

	run.FinishedAt = time.Now()
	run.Response = response
	run.Outcome = outcome(err)
	if err != nil {
		run.Error = err.Error()
		a.notify(err)
		log.Infof("run %s: %v", run.ID, err)
	} else {
		log.Infof("run %s: %d characters in %s", run.ID, utf8.RuneCountInString(response), run.Duration())
	}

	if recorder != nil && settings.Journal {
		if _, jerr := recorder.Record(run); jerr != nil {
			log.Errorf("failed to record run %s: %v", run.ID, jerr)
		}
	}
	return response, err
}

func (a *Assistant) generate(
	ctx context.Context,
	ed editor.Editor,
	src Source,
	settings config.Settings,
	extractor *extract.Extractor,
	settingsErr error,
	run *journal.Run,
) (string, error) {
	if settingsErr != nil {
		return "", settingsErr
	}

	req := settings.Request()
	contextText := extractor.Extract(extract.Input{
		Text:        ed.Text(),
		Cursor:      ed.PositionToOffset(ed.Cursor()),
		Selection:   ed.Selection(),
		IncludePath: req.IncludePath,
		Path:        src.Path,
	})
	run.ContextChars = utf8.RuneCountInString(contextText)
	log.Debugf("run %s: extracted %d characters from %s", run.ID, run.ContextChars, src.URI)

	stream, err := a.seq.Generate(ctx, contextText, req)
	if err != nil {
		return "", err
	}
	return editor.Write(ctx, ed, stream, req.Prefix, req.Postfix)
}

func (a *Assistant) notify(err error) {
	var pe *prompt.Error
	if !errors.As(err, &pe) {
		a.notifier.Error(fmt.Sprintf("Reverse prompt failed: %v", err))
		return
	}
	message := fmt.Sprintf("Reverse prompt %s: %v", pe.Kind, pe.Err)
	switch pe.Kind {
	case prompt.ConcurrencyRejection, prompt.InputTooShort:
		a.notifier.Warn(message)
	default:
		a.notifier.Error(message)
	}
}

func outcome(err error) journal.Outcome {
	switch {
	case err == nil:
		return journal.OutcomeOK
	case errors.Is(err, context.Canceled):
		return journal.OutcomeCancelled
	}
	switch prompt.KindOf(err) {
	case prompt.ConfigurationError, prompt.ConcurrencyRejection, prompt.InputTooShort:
		return journal.OutcomeRejected
	default:
		return journal.OutcomeFailed
	}
}
