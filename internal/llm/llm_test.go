package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reprompt/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name string, calls *[]string) llm.Func {
	return llm.Func{
		ProviderName: name,
		Fn: func(ctx context.Context, req llm.ChatRequest, onDelta func(string) error) error {
			*calls = append(*calls, name)
			return onDelta(name)
		},
	}
}

func TestRouterPicksLongestPrefix(t *testing.T) {
	var calls []string
	router := llm.NewRouter(named("fallback", &calls)).
		Route("gemini", named("gemini", &calls)).
		Route("gemini-2.5", named("gemini-2.5", &calls))

	for _, model := range []string{"gpt-4o-mini", "gemini-2.0-flash", "gemini-2.5-pro"} {
		err := router.ChatStream(context.Background(), llm.ChatRequest{Model: model}, func(string) error { return nil })
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"fallback", "gemini", "gemini-2.5"}, calls)
}

func TestRouterWrapsProviderErrors(t *testing.T) {
	boom := errors.New("boom")
	router := llm.NewRouter(llm.Func{
		ProviderName: "openai",
		Fn: func(context.Context, llm.ChatRequest, func(string) error) error {
			return boom
		},
	})
	err := router.ChatStream(context.Background(), llm.ChatRequest{Model: "gpt-4"}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "openai")
}

func TestSupported(t *testing.T) {
	assert.True(t, llm.Supported(llm.DefaultModel))
	assert.True(t, llm.Supported("gemini-2.5-flash"))
	assert.False(t, llm.Supported("gpt-9"))
}

func TestOpenAIStreamsDeltasInOrder(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"Wh"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"at if"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"?"}}]}`,
		}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := llm.NewOpenAI()
	var deltas []string
	err := p.ChatStream(context.Background(), llm.ChatRequest{
		Model:   "gpt-4o-mini",
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "ask one question"},
			{Role: llm.RoleUser, Content: "some notes"},
		},
	}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Wh", "at if", "?"}, deltas)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.True(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "ask one question", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "some notes", got.Messages[1].Content)
}

func TestOpenAIReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	err := llm.NewOpenAI().ChatStream(context.Background(), llm.ChatRequest{
		Model:   "gpt-4o-mini",
		APIKey:  "bad",
		BaseURL: srv.URL + "/v1",
	}, func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestOpenAIStopsWhenConsumerFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 3; i++ {
			fmt.Fprintf(w, "data: %s\n\n", `{"choices":[{"index":0,"delta":{"content":"x"}}]}`)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	stop := errors.New("stop")
	calls := 0
	err := llm.NewOpenAI().ChatStream(context.Background(), llm.ChatRequest{
		Model:   "gpt-4o-mini",
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
	}, func(string) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestGeminiStreamsText(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"Wh", "at if", "?"} {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}}]}\n\n", text)
		}
	}))
	defer srv.Close()

	var deltas []string
	err := llm.NewGemini().ChatStream(context.Background(), llm.ChatRequest{
		Model:   "gemini-2.5-flash",
		APIKey:  "g-test",
		BaseURL: srv.URL,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "ask one question"},
			{Role: llm.RoleUser, Content: "some notes"},
		},
	}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "What if?", strings.Join(deltas, ""))
	assert.Contains(t, path, "gemini-2.5-flash:streamGenerateContent")
	assert.Contains(t, body, "systemInstruction")
}

func TestNewDefaultRoutesGemini(t *testing.T) {
	r := llm.NewDefault()
	assert.Equal(t, "router", r.Name())

	err := r.ChatStream(context.Background(), llm.ChatRequest{Model: "gemini-2.5-flash", APIKey: "k", BaseURL: "http://127.0.0.1:1"}, func(string) error { return nil })
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "gemini: "), err.Error())
}
