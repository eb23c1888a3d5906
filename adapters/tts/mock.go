package tts

import (
	"context"
	"sync"

	"github.com/hireloop/interview-relay/domain/repositories"
)

// MockSynthesizer is an in-memory SpeechSynthesizer for tests.
type MockSynthesizer struct {
	// Payload is returned from every Synthesize call unless Err is set.
	Payload []byte
	Err     error

	mu       sync.Mutex
	requests []repositories.SynthesisRequest
	texts    []string
}

// NewMockSynthesizer creates a mock returning the given payload.
func NewMockSynthesizer(payload []byte) *MockSynthesizer {
	return &MockSynthesizer{Payload: payload}
}

// Synthesize implements repositories.SpeechSynthesizer
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string, request repositories.SynthesisRequest) ([]byte, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.requests = append(m.requests, request.WithDefaults())
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Payload) == 0 {
		return nil, ErrEmptyAudio
	}
	return m.Payload, nil
}

// Texts returns the synthesized texts in call order.
func (m *MockSynthesizer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Requests returns the resolved requests in call order.
func (m *MockSynthesizer) Requests() []repositories.SynthesisRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repositories.SynthesisRequest(nil), m.requests...)
}
