package llm

import (
	"context"
	"sync"
)

// MockClient is a Client for testing. It returns canned responses and
// records every request it receives.
//
// Sequential responses cycle: after the last configured response, the
// next call returns the first again.
type MockClient struct {
	mu        sync.Mutex
	fixed     string
	responses []string
	index     int
	err       error

	// Calls records every request, in order.
	Calls []CompletionRequest
}

// Compile-time interface check.
var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock that always returns the given content.
func NewMockClient(content string) *MockClient {
	return &MockClient{fixed: content}
}

// WithResponses configures sequential responses, overriding the fixed one.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	m.index = 0
	return m
}

// WithError makes every call return err.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.err != nil {
		return nil, m.err
	}

	return &CompletionResponse{
		Content:      m.next(),
		FinishReason: "stop",
		Usage:        TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	}, nil
}

// Stream implements Client. The response is delivered as a handful of
// content chunks followed by a final Done chunk with usage.
func (m *MockClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	err := m.err
	content := m.next()
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)

		// Split into fixed-size chunks to exercise accumulation.
		const chunkSize = 64
		for i := 0; i < len(content); i += chunkSize {
			end := i + chunkSize
			if end > len(content) {
				end = len(content)
			}
			select {
			case ch <- StreamChunk{Content: content[i:end]}:
			case <-ctx.Done():
				ch <- StreamChunk{Error: ctx.Err()}
				return
			}
		}

		select {
		case ch <- StreamChunk{
			Done:  true,
			Usage: &TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
		}:
		case <-ctx.Done():
		}
	}()

	return ch, nil
}

// CallCount returns the number of calls made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or nil if none were made.
func (m *MockClient) LastCall() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return &m.Calls[len(m.Calls)-1]
}

// Reset clears recorded calls and rewinds sequential responses.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.index = 0
}

// next returns the next response content. Caller must hold mu.
func (m *MockClient) next() string {
	if len(m.responses) == 0 {
		return m.fixed
	}
	content := m.responses[m.index%len(m.responses)]
	m.index++
	return content
}
