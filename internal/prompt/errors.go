package prompt

import (
	"errors"
	"fmt"
)

// Kind classifies a failed generation for the user-facing notification.
type Kind int

const (
	KindUnknown Kind = iota
	ConfigurationError
	ConcurrencyRejection
	InputTooShort
	ProviderError
)

func (k Kind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration error"
	case ConcurrencyRejection:
		return "request in progress"
	case InputTooShort:
		return "input too short"
	case ProviderError:
		return "provider error"
	default:
		return "unknown error"
	}
}

var (
	// ErrBusy is returned when a stream is already active on the sequencer
	ErrBusy = fmt.Errorf("a reverse prompt is already being generated")

	// ErrMissingCredential is returned when no API key is configured
	ErrMissingCredential = fmt.Errorf("no API key configured")

	// ErrInputTooShort is returned when the extracted context is too short to send
	ErrInputTooShort = fmt.Errorf("not enough context to generate a reverse prompt")
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Configuration wraps err as a ConfigurationError.
func Configuration(op string, err error) error {
	return newError(ConfigurationError, op, err)
}
