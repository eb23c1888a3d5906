package stt

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/repositories"
)

// MockRecognizer is an in-memory SpeechRecognizer for tests and local
// development. Every Connect call produces a scriptable MockStream.
type MockRecognizer struct {
	logger *zap.Logger

	// ConnectErr, when set, makes Connect fail.
	ConnectErr error

	mu      sync.Mutex
	streams []*MockStream
	configs []repositories.RecognitionConfig
}

// NewMockRecognizer creates a new mock recognizer
func NewMockRecognizer(logger *zap.Logger) *MockRecognizer {
	return &MockRecognizer{logger: logger}
}

// Connect implements repositories.SpeechRecognizer
func (m *MockRecognizer) Connect(ctx context.Context, config repositories.RecognitionConfig) (repositories.RecognitionStream, error) {
	if m.ConnectErr != nil {
		return nil, m.ConnectErr
	}

	stream := &MockStream{
		transcripts: make(chan repositories.TranscriptEvent, 16),
		errors:      make(chan error, 16),
	}

	m.mu.Lock()
	m.streams = append(m.streams, stream)
	m.configs = append(m.configs, config)
	m.mu.Unlock()

	return stream, nil
}

// Streams returns every stream created so far.
func (m *MockRecognizer) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockStream(nil), m.streams...)
}

// Configs returns the configs passed to Connect, in order.
func (m *MockRecognizer) Configs() []repositories.RecognitionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repositories.RecognitionConfig(nil), m.configs...)
}

// MockStream records forwarded frames and lets tests script upstream events.
type MockStream struct {
	transcripts chan repositories.TranscriptEvent
	errors      chan error

	mu         sync.Mutex
	frames     [][]byte
	closed     bool
	closeCount int
}

// SendAudio implements repositories.RecognitionStream
func (s *MockStream) SendAudio(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	s.frames = append(s.frames, buf)
}

// Transcripts implements repositories.RecognitionStream
func (s *MockStream) Transcripts() <-chan repositories.TranscriptEvent {
	return s.transcripts
}

// Errors implements repositories.RecognitionStream
func (s *MockStream) Errors() <-chan error {
	return s.errors
}

// Close implements repositories.RecognitionStream
func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCount++
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.transcripts)
	close(s.errors)
	return nil
}

// EmitTranscript delivers a scripted transcript event to the consumer.
func (s *MockStream) EmitTranscript(event repositories.TranscriptEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.transcripts <- event
}

// EmitError delivers a scripted stream error to the consumer.
func (s *MockStream) EmitError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.errors <- err
}

// Frames returns the forwarded audio frames in arrival order.
func (s *MockStream) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

// CloseCount reports how many times Close was called.
func (s *MockStream) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCount
}
