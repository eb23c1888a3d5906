package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/entities"
	"github.com/hireloop/interview-relay/domain/repositories"
)

const (
	// Frames buffered while the upstream connection is being established.
	// Overflow is dropped with a warning, never queued unbounded.
	maxPendingFrames = 32

	eventBufferSize = 32

	// Upper bound on one reply round trip (generation plus synthesis).
	respondTimeout = 60 * time.Second
)

// ErrSynthesisBusy is returned when a response round trip is requested while
// a previous one is still in flight. One request per session at a time.
var ErrSynthesisBusy = errors.New("synthesis already in flight for this session")

// Event is one outbound occurrence on a session: a transcript, a synthesized
// reply, or an error. Fatal errors mean the session is closed.
type Event struct {
	Transcript *repositories.TranscriptEvent
	Reply      string
	Audio      []byte
	Err        error
	Fatal      bool
}

// Session coordinates one client's audio round trip: it owns at most one
// recognition stream, relays transcripts outward, and mediates the
// text-generation and synthesis calls for spoken replies.
type Session struct {
	entity      *entities.RelaySession
	recognizer  repositories.SpeechRecognizer
	synthesizer repositories.SpeechSynthesizer
	generator   repositories.TextGenerator
	logger      *zap.Logger

	mu          sync.Mutex
	state       entities.SessionState
	stream      repositories.RecognitionStream
	pending     [][]byte
	dropped     int
	pumpStarted bool

	respondMu sync.Mutex
	respondWG sync.WaitGroup

	events     chan Event
	done       chan struct{}
	closeOnce  sync.Once
	eventsOnce sync.Once
}

// NewSession creates a relay session. The synthesizer and generator may be
// nil when the session only relays transcripts.
func NewSession(
	entity *entities.RelaySession,
	recognizer repositories.SpeechRecognizer,
	synthesizer repositories.SpeechSynthesizer,
	generator repositories.TextGenerator,
	logger *zap.Logger,
) *Session {
	return &Session{
		entity:      entity,
		recognizer:  recognizer,
		synthesizer: synthesizer,
		generator:   generator,
		logger:      logger,
		state:       entities.SessionStateUninitialized,
		events:      make(chan Event, eventBufferSize),
		done:        make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.entity.ID
}

// State returns the current lifecycle state.
func (s *Session) State() entities.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events delivers session occurrences to the single subscriber. The channel
// is closed once the session reaches its terminal state.
func (s *Session) Events() <-chan Event {
	return s.events
}

// DroppedFrames reports frames discarded while connecting upstream.
func (s *Session) DroppedFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// HandleAudio accepts one inbound audio frame. The first frame triggers the
// upstream connection; frames arriving while connecting are buffered up to
// maxPendingFrames. Frames on a closed session are dropped silently.
func (s *Session) HandleAudio(frame []byte) {
	buf := make([]byte, len(frame))
	copy(buf, frame)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case entities.SessionStateActive:
		s.stream.SendAudio(buf)

	case entities.SessionStateUninitialized:
		s.state = entities.SessionStateConnectingUpstream
		s.pending = append(s.pending, buf)
		go s.connectUpstream()

	case entities.SessionStateConnectingUpstream:
		if len(s.pending) < maxPendingFrames {
			s.pending = append(s.pending, buf)
			return
		}
		s.dropped++
		s.logger.Warn("Dropping audio frame, upstream still connecting",
			zap.String("sessionID", s.entity.ID),
			zap.Int("dropped", s.dropped))

	default:
		// Closing or closed, nothing to forward to.
	}
}

// connectUpstream establishes the recognition stream and flushes buffered
// frames in arrival order.
func (s *Session) connectUpstream() {
	config := repositories.RecognitionConfig{
		Language:       s.entity.Config.Language,
		SampleRate:     s.entity.Config.SampleRate,
		Channels:       1,
		InterimResults: true,
		Punctuate:      true,
	}

	stream, err := s.recognizer.Connect(context.Background(), config)

	s.mu.Lock()
	if s.state != entities.SessionStateConnectingUpstream {
		// Closed while connecting; the late stream is not wanted.
		s.mu.Unlock()
		if err == nil {
			stream.Close()
		}
		return
	}

	if err != nil {
		s.state = entities.SessionStateClosed
		s.pending = nil
		s.mu.Unlock()

		s.logger.Error("Upstream connect failed",
			zap.String("sessionID", s.entity.ID),
			zap.Error(err))
		s.emit(Event{Err: fmt.Errorf("upstream connect failed: %w", err), Fatal: true})
		s.eventsOnce.Do(func() { close(s.events) })
		return
	}

	s.stream = stream
	for _, frame := range s.pending {
		stream.SendAudio(frame)
	}
	s.pending = nil
	s.state = entities.SessionStateActive
	s.pumpStarted = true
	s.mu.Unlock()

	s.logger.Info("Session active",
		zap.String("sessionID", s.entity.ID),
		zap.String("language", s.entity.Config.Language))

	go s.pumpEvents(stream)
}

// pumpEvents forwards stream transcripts and errors to the subscriber until
// the stream ends. It is the sole closer of the events channel once started.
func (s *Session) pumpEvents(stream repositories.RecognitionStream) {
	transcripts := stream.Transcripts()
	streamErrors := stream.Errors()

	for transcripts != nil || streamErrors != nil {
		select {
		case event, ok := <-transcripts:
			if !ok {
				transcripts = nil
				continue
			}
			s.handleTranscript(event)

		case err, ok := <-streamErrors:
			if !ok {
				streamErrors = nil
				continue
			}
			// Recognition protocol errors are recoverable; the session
			// stays active.
			s.emit(Event{Err: err})
		}
	}

	// Reply goroutines emit on the events channel; they must finish before
	// it closes.
	s.respondWG.Wait()

	s.mu.Lock()
	userClosed := s.state == entities.SessionStateClosing || s.state == entities.SessionStateClosed
	if !userClosed {
		s.state = entities.SessionStateClosed
	}
	s.mu.Unlock()

	if !userClosed {
		s.emit(Event{Err: errors.New("recognition upstream ended"), Fatal: true})
	}
	s.eventsOnce.Do(func() { close(s.events) })
}

// handleTranscript relays one transcript and, when the session is configured
// for spoken replies, runs the response round trip for final results.
func (s *Session) handleTranscript(event repositories.TranscriptEvent) {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return
	}
	event.Text = text
	s.emit(Event{Transcript: &event})

	if !event.IsFinal || s.generator == nil || s.synthesizer == nil {
		return
	}

	// The round trip runs off the pump so transcripts keep flowing while
	// the reply is generated. A round trip already in flight skips the
	// reply instead of queueing.
	s.respondWG.Add(1)
	go func() {
		defer s.respondWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), respondTimeout)
		defer cancel()

		reply, audio, err := s.Respond(ctx, text)
		if err != nil {
			if errors.Is(err, ErrSynthesisBusy) {
				s.logger.Warn("Skipping reply, synthesis in flight",
					zap.String("sessionID", s.entity.ID))
				return
			}
			s.emit(Event{Err: err})
			return
		}
		s.emit(Event{Reply: reply, Audio: audio})
	}()
}

// Respond turns a transcript into a generated reply and its synthesized
// audio. At most one response round trip runs per session at a time.
func (s *Session) Respond(ctx context.Context, transcript string) (string, []byte, error) {
	if s.generator == nil || s.synthesizer == nil {
		return "", nil, errors.New("session is not configured for responses")
	}
	if !s.respondMu.TryLock() {
		return "", nil, ErrSynthesisBusy
	}
	defer s.respondMu.Unlock()

	reply, err := s.generator.GenerateText(ctx, transcript, repositories.GenerateOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("reply generation failed: %w", err)
	}

	audio, err := s.synthesizer.Synthesize(ctx, reply, repositories.SynthesisRequest{
		Voice:      s.entity.Config.Voice,
		Language:   s.entity.Config.Language,
		SampleRate: s.entity.Config.SampleRate,
		Format:     s.entity.Config.Format,
	})
	if err != nil {
		return "", nil, fmt.Errorf("reply synthesis failed: %w", err)
	}

	return reply, audio, nil
}

// Close tears the session down, closing the upstream stream synchronously.
// Safe to call multiple times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		if prev == entities.SessionStateActive {
			s.state = entities.SessionStateClosing
		} else {
			s.state = entities.SessionStateClosed
		}
		stream := s.stream
		pumpStarted := s.pumpStarted
		s.pending = nil
		s.mu.Unlock()

		close(s.done)

		if stream != nil {
			stream.Close()
		}

		s.mu.Lock()
		s.state = entities.SessionStateClosed
		s.mu.Unlock()

		// The pump closes the events channel after draining the stream;
		// without a pump there is nobody else to do it.
		if !pumpStarted {
			s.eventsOnce.Do(func() { close(s.events) })
		}

		s.logger.Info("Session closed", zap.String("sessionID", s.entity.ID))
	})
}

// emit delivers an event unless the session has been torn down.
func (s *Session) emit(event Event) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}
