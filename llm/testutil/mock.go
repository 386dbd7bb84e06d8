// Package testutil provides test utilities for the llm package.
package testutil

import (
	"context"
	"sync"

	"github.com/complymap/complymap/llm"
)

// MockClient is a thread-safe mock implementation of llm.Completer.
// It returns configured responses in sequence and captures the context
// passed to Complete for verification.
type MockClient struct {
	mu              sync.Mutex
	capturedContext context.Context
	capturedReqs    []llm.Request

	// Responses are returned in sequence; after they are exhausted an
	// empty response is returned.
	Responses []*llm.Response

	// Err, if set, takes precedence over Responses.
	Err error

	// Delay, if set, blocks Complete until the delay elapses or the
	// context is canceled. Used for timeout tests.
	Delay func(ctx context.Context) error

	callCount     int
	responseIndex int
}

// Complete implements llm.Completer.
func (m *MockClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.capturedContext = ctx
	m.capturedReqs = append(m.capturedReqs, req)
	m.callCount++
	delay := m.Delay
	m.mu.Unlock()

	if delay != nil {
		if err := delay(ctx); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}

	return &llm.Response{Content: "", Model: "test-model"}, nil
}

// CapturedContext returns the last context passed to Complete.
func (m *MockClient) CapturedContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturedContext
}

// CapturedRequests returns all requests passed to Complete.
func (m *MockClient) CapturedRequests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.capturedReqs...)
}

// CallCount returns the number of times Complete was called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
