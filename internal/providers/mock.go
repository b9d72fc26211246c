package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// MockAdapter is an Adapter for testing.
type MockAdapter struct {
	// Configurable behavior
	Latency      time.Duration
	Err          error  // Returned on every call when set
	FailAfter    int    // Fail after N requests (0 = never)
	ResponseText string // Used for text requests
	ResponseJSON json.RawMessage

	// Script queues one text response per call; once drained,
	// ResponseText takes over. Useful for classification walks.
	Script []string

	// State
	requestCount atomic.Int64

	mu       sync.Mutex
	scripted int
	requests []*Request
}

// NewMockAdapter creates a new mock adapter with sensible defaults.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the adapter identifier.
func (m *MockAdapter) Name() string {
	return MockName
}

// Calls returns the number of Invoke calls made so far.
func (m *MockAdapter) Calls() int64 {
	return m.requestCount.Load()
}

// LastRequest returns the most recent request, or nil.
func (m *MockAdapter) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Requests returns all requests seen so far.
func (m *MockAdapter) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Invoke records the request and replays the configured response.
func (m *MockAdapter) Invoke(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	count := m.requestCount.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if m.FailAfter > 0 && count > int64(m.FailAfter) {
		return nil, &ProviderError{
			Provider:   MockName,
			StatusCode: 500,
			Retryable:  true,
			Message:    fmt.Sprintf("mock failure after %d requests", m.FailAfter),
		}
	}

	resp := &Response{
		Provider:     MockName,
		ModelUsed:    req.Model,
		InputTokens:  10,
		OutputTokens: 20,
		Latency:      time.Since(start),
	}

	if req.Schema != nil {
		resp.Kind = ResponseStructured
		resp.Value = m.ResponseJSON
		return resp, nil
	}

	resp.Kind = ResponseText
	resp.Text = m.nextText()
	return resp, nil
}

func (m *MockAdapter) nextText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scripted < len(m.Script) {
		text := m.Script[m.scripted]
		m.scripted++
		return text
	}
	return m.ResponseText
}

// Verify interface
var _ Adapter = (*MockAdapter)(nil)
