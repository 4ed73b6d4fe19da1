// Package mocks provides test doubles for the llm.Provider contract.
//
// MockProvider supports fixed responses, per-request routing via a custom
// completion func, tool-call responses and error injection.
package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BaSui01/councilflow/llm"
)

// MockProvider is a scriptable llm.Provider.
type MockProvider struct {
	mu sync.Mutex

	response       string
	toolCalls      []llm.ToolCall
	err            error
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	delay     time.Duration
	failAfter int // fail every call after the Nth
	callCount int
	calls     []*llm.ChatRequest
}

// NewMockProvider creates a provider answering "Mock response" to everything.
func NewMockProvider() *MockProvider {
	return &MockProvider{response: "Mock response"}
}

// WithResponse sets the fixed response content.
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithToolCalls attaches tool calls to every response.
func (m *MockProvider) WithToolCalls(calls []llm.ToolCall) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls = calls
	return m
}

// WithCompletionFunc routes every call through fn. This is the hook for
// per-model or per-turn scripting.
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

// WithDelay makes every call sleep first (respecting context cancellation).
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithFailAfter makes calls fail once more than n have been made.
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) SupportsNativeFunctionCalling() bool { return true }

func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: 10 * time.Millisecond}, nil
}

func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.callCount++
	m.calls = append(m.calls, req)
	response := m.response
	toolCalls := m.toolCalls
	err := m.err
	fn := m.completionFunc
	delay := m.delay
	failed := m.failAfter > 0 && m.callCount > m.failAfter
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failed {
		return nil, errors.New("mock provider: configured to fail after N calls")
	}
	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, req)
	}

	msg := llm.Message{
		Role:      llm.RoleAssistant,
		Content:   response,
		ToolCalls: toolCalls,
	}
	finishReason := "stop"
	if len(toolCalls) > 0 {
		finishReason = "tool_calls"
	}

	return &llm.ChatResponse{
		ID:       "mock-response-id",
		Provider: "mock",
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{Index: 0, FinishReason: finishReason, Message: msg},
		},
		CreatedAt: time.Now(),
	}, nil
}

// Calls returns a copy of every recorded request in call order.
func (m *MockProvider) Calls() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*llm.ChatRequest{}, m.calls...)
}

// CallCount returns the number of calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// --- preset factories ---

// NewSuccessProvider always answers with response.
func NewSuccessProvider(response string) *MockProvider {
	return NewMockProvider().WithResponse(response)
}

// NewErrorProvider always fails with err.
func NewErrorProvider(err error) *MockProvider {
	return NewMockProvider().WithError(err)
}

// NewToolCallProvider answers with the given tool calls attached.
func NewToolCallProvider(calls []llm.ToolCall) *MockProvider {
	return NewMockProvider().WithToolCalls(calls)
}
