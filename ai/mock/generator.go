package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/logseer/core"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	// If nil, a canned answer echoing the prompt length is returned.
	CompleteFunc func(ctx context.Context, prompt string, history []core.Turn) (string, error)

	callCount   int
	lastPrompt  string
	lastHistory []core.Turn
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Complete records the call and returns the injected or canned response.
func (m *MockGenerator) Complete(ctx context.Context, prompt string, history []core.Turn) (string, error) {
	m.callCount++
	m.lastPrompt = prompt
	m.lastHistory = history

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, history)
	}

	return fmt.Sprintf("generated answer (%d prompt chars)", len(prompt)), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// LastPrompt returns the prompt passed to the most recent Complete call.
func (m *MockGenerator) LastPrompt() string {
	return m.lastPrompt
}

// LastHistory returns the history passed to the most recent Complete call.
func (m *MockGenerator) LastHistory() []core.Turn {
	return m.lastHistory
}

// Reset clears recorded calls and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.lastPrompt = ""
	m.lastHistory = nil
	m.CompleteFunc = nil
}
