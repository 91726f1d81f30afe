package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Client abstracts an OpenAI-compatible chat API.
type Client interface {
	// ChatCompletion sends a chat completion request and returns the reply.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Role of a message in a conversation.
type Role string

const (
	RoleSystem    Role = openai.ChatMessageRoleSystem
	RoleUser      Role = openai.ChatMessageRoleUser
	RoleAssistant Role = openai.ChatMessageRoleAssistant
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is a simplified chat request. Examples are sent between the
// system message and the user message, in order.
type ChatRequest struct {
	Model         string
	SystemMessage string
	Examples      []Message
	UserMessage   string
	// Temperature overrides the client default when set.
	Temperature *float64
	MaxTokens   int
}

// ChatResponse holds the result of a chat completion.
type ChatResponse struct {
	Content string
}

// OpenAIClient implements Client using the OpenAI-compatible API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature *float64
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(opts ...Option) *OpenAIClient {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		apiKey:  "not-needed",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	config := openai.DefaultConfig(cfg.apiKey)
	config.BaseURL = cfg.baseURL
	if cfg.httpClient != nil {
		config.HTTPClient = cfg.httpClient
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.model,
		temperature: cfg.temperature,
	}
}

// ChatCompletion sends a non-streaming chat completion request.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req = c.applyDefaults(req)
	if req.Model == "" {
		return nil, fmt.Errorf("chat completion failed: no model configured")
	}

	creq := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  buildMessages(req),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		creq.Temperature = float32(*req.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return &ChatResponse{
		Content: resp.Choices[0].Message.Content,
	}, nil
}

// applyDefaults fills in client-level defaults the request leaves unset.
func (c *OpenAIClient) applyDefaults(req ChatRequest) ChatRequest {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.Temperature == nil && c.temperature != nil {
		t := *c.temperature
		req.Temperature = &t
	}
	return req
}

func buildMessages(req ChatRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Examples)+2)
	if req.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemMessage})
	}
	for _, m := range req.Examples {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserMessage})
}
