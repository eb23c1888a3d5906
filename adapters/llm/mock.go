package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/hireloop/interview-relay/domain/repositories"
)

// MockGenerator is an in-memory TextGenerator for tests and local development.
type MockGenerator struct {
	// Reply, when set, is returned verbatim. Otherwise a canned response
	// echoing the prompt is produced.
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
	options []repositories.GenerateOptions
}

// NewMockGenerator creates a new mock text generator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateText implements repositories.TextGenerator
func (m *MockGenerator) GenerateText(ctx context.Context, prompt string, options repositories.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, options)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return fmt.Sprintf("Thanks for sharing. Tell me more about: %s", prompt), nil
}

// Prompts returns the prompts received in call order.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Options returns the generation options received in call order.
func (m *MockGenerator) Options() []repositories.GenerateOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repositories.GenerateOptions(nil), m.options...)
}
