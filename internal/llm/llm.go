// Package llm streams chat completions from language model providers.
package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

// ChatRequest is one streaming chat completion call.
type ChatRequest struct {
	Model    string
	Messages []Message
	APIKey   string
	// BaseURL overrides the provider endpoint when set.
	BaseURL string
}

// Provider opens a streaming chat completion and hands every content delta
// to onDelta in arrival order. A delta without text is reported as "".
// When onDelta returns an error the stream is abandoned and ChatStream
// returns that error.
type Provider interface {
	Name() string
	ChatStream(ctx context.Context, req ChatRequest, onDelta func(delta string) error) error
}

// Func adapts a function to the Provider interface.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, req ChatRequest, onDelta func(string) error) error
}

func (f Func) Name() string { return f.ProviderName }

func (f Func) ChatStream(ctx context.Context, req ChatRequest, onDelta func(string) error) error {
	return f.Fn(ctx, req, onDelta)
}

// Models lists the supported model identifiers.
var Models = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4.1-mini",
	"gpt-4.1",
	"gpt-4-turbo",
	"gpt-4",
	"gpt-3.5-turbo",
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
}

const DefaultModel = "gpt-4o-mini"

func Supported(model string) bool {
	return slices.Contains(Models, model)
}

// Router sends each request to the provider registered for the longest
// matching model prefix, or to the fallback.
type Router struct {
	fallback Provider
	routes   map[string]Provider
}

func NewRouter(fallback Provider) *Router {
	return &Router{fallback: fallback, routes: make(map[string]Provider)}
}

// Route registers p for every model starting with prefix.
func (r *Router) Route(prefix string, p Provider) *Router {
	r.routes[prefix] = p
	return r
}

func (r *Router) Name() string { return "router" }

func (r *Router) ChatStream(ctx context.Context, req ChatRequest, onDelta func(string) error) error {
	p := r.resolve(req.Model)
	if p == nil {
		return fmt.Errorf("no provider for model %q", req.Model)
	}
	if err := p.ChatStream(ctx, req, onDelta); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}

func (r *Router) resolve(model string) Provider {
	best := ""
	var found Provider
	for prefix, p := range r.routes {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best, found = prefix, p
		}
	}
	if found != nil {
		return found
	}
	return r.fallback
}

// NewDefault routes gemini-* models to Gemini and everything else to OpenAI.
func NewDefault() *Router {
	return NewRouter(NewOpenAI()).Route("gemini", NewGemini())
}
