// Package prompt issues one streaming reverse-prompt request at a time.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"reprompt/internal/llm"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("reprompt.prompt")

// MinContextLength is the number of runes below which no request is sent.
const MinContextLength = 2

type State int

const (
	Idle State = iota
	Validating
	Streaming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Streaming:
		return "streaming"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Request is the configuration snapshot for a single generation.
type Request struct {
	APIKey  string
	BaseURL string
	Prompt  string
	Model   string

	Prefix      string
	Postfix     string
	IncludePath bool

	// Timeout bounds the provider call. Zero disables it.
	Timeout time.Duration
}

// Sequencer sends reverse-prompt requests to a provider, one at a time.
type Sequencer struct {
	provider llm.Provider
	notifier Notifier

	mu    sync.Mutex
	state State
}

func NewSequencer(provider llm.Provider, notifier Notifier) *Sequencer {
	if notifier == nil {
		notifier = NopNotifier
	}
	return &Sequencer{
		provider: provider,
		notifier: notifier,
	}
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sequencer) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Generate validates the request and opens a stream of response fragments.
// Rejections are returned before the provider is contacted.
func (s *Sequencer) Generate(ctx context.Context, text string, req Request) (*Stream, error) {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return nil, newError(ConcurrencyRejection, "generate", ErrBusy)
	}
	s.state = Validating
	s.mu.Unlock()

	if req.APIKey == "" {
		s.setState(Idle)
		return nil, newError(ConfigurationError, "generate", ErrMissingCredential)
	}
	if utf8.RuneCountInString(text) < MinContextLength {
		s.setState(Idle)
		return nil, newError(InputTooShort, "generate", ErrInputTooShort)
	}

	s.setState(Streaming)
	s.notifier.Info("Generating reverse prompt...")

	var cancel context.CancelFunc
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	st := &Stream{
		fragments: make(chan string),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	go s.run(ctx, st, text, req)
	return st, nil
}

func (s *Sequencer) run(ctx context.Context, st *Stream, text string, req Request) {
	defer st.cancel()

	chat := llm.ChatRequest{
		Model:   req.Model,
		APIKey:  req.APIKey,
		BaseURL: req.BaseURL,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: req.Prompt},
			{Role: llm.RoleUser, Content: text},
		},
	}

	start := time.Now()
	fragments := 0
	err := s.provider.ChatStream(ctx, chat, func(delta string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case st.fragments <- delta:
			fragments++
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && req.Timeout > 0 {
			err = fmt.Errorf("request timed out after %s: %w", req.Timeout, err)
		}
		st.err = newError(ProviderError, "stream", err)
		log.Infof("stream failed after %d fragments: %v", fragments, err)
	} else {
		log.Debugf("stream finished: %d fragments in %s", fragments, time.Since(start))
	}

	// Release before closing so a consumer that has drained the stream can
	// start the next request right away.
	s.setState(Idle)
	close(st.fragments)
	close(st.done)
}

// Stream delivers response fragments in arrival order.
type Stream struct {
	fragments chan string
	done      chan struct{}
	cancel    context.CancelFunc
	err       error
}

// Fragments is closed when the stream ends.
func (st *Stream) Fragments() <-chan string {
	return st.fragments
}

func (st *Stream) Done() <-chan struct{} {
	return st.done
}

// Err blocks until the stream ends and reports why it ended. It is nil on
// normal completion.
func (st *Stream) Err() error {
	<-st.done
	return st.err
}

// Cancel aborts the request. Fragments not yet read are dropped.
func (st *Stream) Cancel() {
	st.cancel()
}
