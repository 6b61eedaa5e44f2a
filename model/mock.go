package model

import (
	"context"
	"fmt"
	"sync"
)

// scriptStep is one queued Generate outcome for the mock.
type scriptStep struct {
	resp *Response
	err  error
}

// MockModel is a scripted in-memory Model for tests. Each Generate call pops
// the next queued step; requests are recorded for assertions.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	script   []scriptStep
	requests []Request
}

// NewMockModel constructs an empty scripted model.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock"}}
}

// EnqueueResponse queues a successful response.
func (m *MockModel) EnqueueResponse(resp Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{resp: &resp})
	return m
}

// EnqueueText queues a plain-text final response.
func (m *MockModel) EnqueueText(text string) *MockModel {
	return m.EnqueueResponse(Response{Text: text, StopReason: "end_turn"})
}

// EnqueueToolCalls queues a response requesting the given tool calls.
func (m *MockModel) EnqueueToolCalls(calls ...ToolCall) *MockModel {
	return m.EnqueueResponse(Response{ToolCalls: calls, StopReason: "tool_use"})
}

// EnqueueError queues a Generate failure.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{err: err})
	return m
}

// Generate pops the next scripted step.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		return nil, fmt.Errorf("mock model script exhausted after %d calls", len(m.requests))
	}
	step := m.script[0]
	m.script = m.script[1:]
	if step.err != nil {
		return nil, step.err
	}
	return step.resp, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// Requests returns a copy of every request Generate received.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// CallCount returns how many times Generate was invoked.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
