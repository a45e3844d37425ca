package mock

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/poiesic/lexcite/ai"
)

// MockGenerator is a test double for ai.Generator.
// With no injected behavior it echoes the prompt back.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)

	// CompleteStreamFunc is called by CompleteStream if set.
	CompleteStreamFunc func(ctx context.Context, prompt string, opts ai.GenerateOptions) iter.Seq2[string, error]

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockGenerator creates a mock generator with default echo behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Complete returns CompleteFunc's result or the prompt itself.
func (m *MockGenerator) Complete(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	m.record(prompt)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, opts)
	}
	return prompt, nil
}

// CompleteStream returns CompleteStreamFunc's sequence, or streams the
// prompt back word by word.
func (m *MockGenerator) CompleteStream(ctx context.Context, prompt string, opts ai.GenerateOptions) iter.Seq2[string, error] {
	m.record(prompt)

	if m.CompleteStreamFunc != nil {
		return m.CompleteStreamFunc(ctx, prompt, opts)
	}
	return Fragments(strings.SplitAfter(prompt, " ")...)
}

// CallCount returns the number of times any method was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns every prompt received, in call order.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears call tracking and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.CompleteFunc = nil
	m.CompleteStreamFunc = nil
}

func (m *MockGenerator) record(prompt string) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
}

// Fragments builds a stream that yields each fragment and then ends cleanly.
func Fragments(fragments ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
	}
}

// FailingStream yields the given fragments and then err.
func FailingStream(err error, fragments ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
		yield("", err)
	}
}
