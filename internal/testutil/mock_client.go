// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"sync"

	"github.com/giantswarm/llm-bench/internal/llm"
)

// MockLLMClient is a configurable mock for llm.Client used across test packages.
type MockLLMClient struct {
	mu sync.Mutex

	// Responses maps user messages to canned responses.
	Responses map[string]string

	// Sequence is consumed in order before Responses and DefaultResponse are consulted.
	Sequence []string

	// DefaultResponse is returned when nothing else matches.
	DefaultResponse string

	// Err, when set, is returned from every call.
	Err error

	// Calls tracks the number of ChatCompletion invocations.
	Calls int

	// LastRequest stores the most recent ChatRequest for inspection.
	LastRequest llm.ChatRequest
}

func (m *MockLLMClient) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastRequest = req

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Sequence) > 0 {
		next := m.Sequence[0]
		m.Sequence = m.Sequence[1:]
		return &llm.ChatResponse{Content: next}, nil
	}
	if resp, ok := m.Responses[req.UserMessage]; ok {
		return &llm.ChatResponse{Content: resp}, nil
	}
	if m.DefaultResponse != "" {
		return &llm.ChatResponse{Content: m.DefaultResponse}, nil
	}
	return &llm.ChatResponse{Content: "mock response"}, nil
}

// CallCount returns Calls under the lock.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
