package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/tliron/commonlog"
)

var openaiLog = commonlog.GetLogger("reprompt.llm.openai")

// OpenAI streams chat completions from the OpenAI API or any endpoint
// speaking the same protocol.
type OpenAI struct {
	HTTPClient *http.Client
}

func NewOpenAI() *OpenAI {
	return &OpenAI{}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) ChatStream(ctx context.Context, req ChatRequest, onDelta func(string) error) error {
	cfg := openai.DefaultConfig(req.APIKey)
	if req.BaseURL != "" {
		cfg.BaseURL = req.BaseURL
	}
	if p.HTTPClient != nil {
		cfg.HTTPClient = p.HTTPClient
	}
	client := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	openaiLog.Debugf("opening stream model=%s messages=%d", req.Model, len(messages))
	stream, err := client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}

		delta := ""
		if len(resp.Choices) > 0 {
			delta = resp.Choices[0].Delta.Content
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
}
