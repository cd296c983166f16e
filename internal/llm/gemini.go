package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tliron/commonlog"
	"google.golang.org/genai"
)

var geminiLog = commonlog.GetLogger("reprompt.llm.gemini")

// Gemini streams completions from the Gemini API. The system message
// becomes the system instruction.
type Gemini struct {
	HTTPClient *http.Client
}

func NewGemini() *Gemini {
	return &Gemini{}
}

func (p *Gemini) Name() string { return "gemini" }

func (p *Gemini) ChatStream(ctx context.Context, req ChatRequest, onDelta func(string) error) error {
	cc := &genai.ClientConfig{
		APIKey:     req.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.HTTPClient,
	}
	if req.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: req.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}

	geminiLog.Debugf("opening stream model=%s contents=%d", req.Model, len(contents))
	for resp, err := range client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
		if err := onDelta(resp.Text()); err != nil {
			return err
		}
	}
	return nil
}
