package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClientDefaults(t *testing.T) {
	client := NewOpenAIClient()
	assert.Empty(t, client.model)
	assert.Nil(t, client.temperature)
}

func TestNewOpenAIClientWithOptions(t *testing.T) {
	client := NewOpenAIClient(
		WithBaseURL("https://api.example.com/v1"),
		WithAPIKey("sk-test"),
		WithModel("gpt-4"),
		WithTemperature(0.5),
	)
	assert.Equal(t, "gpt-4", client.model)
	require.NotNil(t, client.temperature)
	assert.Equal(t, 0.5, *client.temperature)
}

func TestApplyDefaults(t *testing.T) {
	client := NewOpenAIClient(WithModel("gpt-4"), WithTemperature(0.8))

	req := client.applyDefaults(ChatRequest{UserMessage: "hello"})
	assert.Equal(t, "gpt-4", req.Model)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.8, *req.Temperature)

	req = client.applyDefaults(ChatRequest{Model: "gpt-3.5", Temperature: Float64Ptr(0), UserMessage: "hello"})
	assert.Equal(t, "gpt-3.5", req.Model)
	assert.Equal(t, 0.0, *req.Temperature)
}

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages(ChatRequest{
		SystemMessage: "judge",
		Examples: []Message{
			{Role: RoleUser, Content: "example question"},
			{Role: RoleAssistant, Content: "0"},
		},
		UserMessage: "real question",
	})
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "real question", msgs[3].Content)

	msgs = buildMessages(ChatRequest{UserMessage: "only"})
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)
}

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestChatCompletion(t *testing.T) {
	var got capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"1"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(WithBaseURL(srv.URL+"/v1"), WithModel("judge-model"), WithHTTPClient(srv.Client()))
	resp, err := client.ChatCompletion(context.Background(), ChatRequest{SystemMessage: "sys", UserMessage: "q"})
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Content)
	assert.Equal(t, "judge-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "q", got.Messages[1].Content)
}

func TestChatCompletionErrors(t *testing.T) {
	_, err := NewOpenAIClient().ChatCompletion(context.Background(), ChatRequest{UserMessage: "q"})
	assert.ErrorContains(t, err, "no model configured")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(WithBaseURL(srv.URL), WithModel("m"))
	_, err = client.ChatCompletion(context.Background(), ChatRequest{UserMessage: "q"})
	assert.ErrorContains(t, err, "no choices returned")
}
