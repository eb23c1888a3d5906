package stt

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/repositories"
)

const (
	defaultEndpoint       = "wss://api.deepgram.com/v1/listen"
	defaultModel          = "nova-2"
	defaultSampleRate     = 16000
	defaultChannels       = 1
	defaultLanguage       = "hi"
	defaultConnectTimeout = 10 * time.Second

	// Buffered events pending consumption by the owning session.
	eventBufferSize = 16
)

// DeepgramConfig holds configuration for the Deepgram recognizer.
// Required fields:
// - APIKey: Your Deepgram API key
// Optional fields with defaults:
// - Endpoint: The streaming endpoint URL (default: "wss://api.deepgram.com/v1/listen")
// - Model: The recognition model (default: "nova-2")
// - ConnectTimeout: Handshake deadline for the upstream socket (default: 10s)
type DeepgramConfig struct {
	APIKey         string
	Endpoint       string
	Model          string
	ConnectTimeout time.Duration
}

// ValidateDeepgramConfig validates the DeepgramConfig
func ValidateDeepgramConfig(config DeepgramConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("deepgram API key is required")
	}
	if config.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", config.ConnectTimeout)
	}
	return nil
}

// NewDeepgramConfigFromEnv creates a DeepgramConfig from environment variables.
func NewDeepgramConfigFromEnv() DeepgramConfig {
	config := DeepgramConfig{
		APIKey:   os.Getenv("DEEPGRAM_API_KEY"),
		Endpoint: os.Getenv("DEEPGRAM_ENDPOINT"),
		Model:    os.Getenv("DEEPGRAM_MODEL"),
	}
	if timeoutStr := os.Getenv("DEEPGRAM_CONNECT_TIMEOUT_SECONDS"); timeoutStr != "" {
		if seconds, err := strconv.Atoi(timeoutStr); err == nil && seconds > 0 {
			config.ConnectTimeout = time.Duration(seconds) * time.Second
		}
	}
	return config
}

// DeepgramRecognizer implements SpeechRecognizer against Deepgram's streaming
// WebSocket endpoint.
type DeepgramRecognizer struct {
	apiKey         string
	endpoint       string
	model          string
	connectTimeout time.Duration
	logger         *zap.Logger
}

// Ensure DeepgramRecognizer implements the SpeechRecognizer interface
var _ repositories.SpeechRecognizer = (*DeepgramRecognizer)(nil)

// NewDeepgramRecognizer creates a new Deepgram recognizer instance
func NewDeepgramRecognizer(config DeepgramConfig, logger *zap.Logger) (*DeepgramRecognizer, error) {
	if err := ValidateDeepgramConfig(config); err != nil {
		return nil, err
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	connectTimeout := config.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = defaultConnectTimeout
	}

	return &DeepgramRecognizer{
		apiKey:         config.APIKey,
		endpoint:       endpoint,
		model:          model,
		connectTimeout: connectTimeout,
		logger:         logger,
	}, nil
}

// streamURL builds the connection URL embedding all recognition parameters.
func (d *DeepgramRecognizer) streamURL(config repositories.RecognitionConfig) (string, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid deepgram endpoint: %w", err)
	}

	model := config.Model
	if model == "" {
		model = d.model
	}
	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}
	channels := config.Channels
	if channels == 0 {
		channels = defaultChannels
	}
	language := config.Language
	if language == "" {
		language = defaultLanguage
	}

	q := u.Query()
	q.Set("model", model)
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", strconv.Itoa(channels))
	q.Set("language", language)
	q.Set("interim_results", strconv.FormatBool(config.InterimResults))
	q.Set("punctuate", strconv.FormatBool(config.Punctuate))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Connect dials the streaming endpoint. Authentication uses the token
// WebSocket subprotocol rather than a header, matching the upstream handshake.
func (d *DeepgramRecognizer) Connect(ctx context.Context, config repositories.RecognitionConfig) (repositories.RecognitionStream, error) {
	streamURL, err := d.streamURL(config)
	if err != nil {
		return nil, err
	}

	d.logger.Info("Connecting to recognition upstream",
		zap.String("url", streamURL),
		zap.String("language", config.Language))

	dialer := websocket.Dialer{
		HandshakeTimeout: d.connectTimeout,
		Subprotocols:     []string{"token", d.apiKey},
	}

	conn, resp, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("deepgram connect failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("deepgram connect failed: %w", err)
	}

	stream := &deepgramStream{
		conn:        conn,
		transcripts: make(chan repositories.TranscriptEvent, eventBufferSize),
		errors:      make(chan error, eventBufferSize),
		logger:      d.logger,
	}
	go stream.readLoop()

	return stream, nil
}

// deepgramStream is one live recognition connection.
type deepgramStream struct {
	conn        *websocket.Conn
	transcripts chan repositories.TranscriptEvent
	errors      chan error
	logger      *zap.Logger

	writeMu   sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// Ensure deepgramStream implements the RecognitionStream interface
var _ repositories.RecognitionStream = (*deepgramStream)(nil)

// SendAudio forwards one binary frame upstream. Frames sent after the stream
// closed are dropped silently, per the connector contract.
func (s *deepgramStream) SendAudio(frame []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		s.logger.Error("Failed to send audio frame upstream", zap.Error(err))
	}
}

func (s *deepgramStream) Transcripts() <-chan repositories.TranscriptEvent {
	return s.transcripts
}

func (s *deepgramStream) Errors() <-chan error {
	return s.errors
}

// Close shuts the connection down. Idempotent.
func (s *deepgramStream) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		s.closed = true
		s.writeMu.Unlock()
		s.conn.Close()
	})
	return nil
}

// readLoop consumes upstream messages until the connection ends. Malformed
// messages are reported on the error channel without tearing the stream down.
func (s *deepgramStream) readLoop() {
	defer close(s.transcripts)
	defer close(s.errors)

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			s.writeMu.Lock()
			wasClosed := s.closed
			s.writeMu.Unlock()
			if !wasClosed {
				s.logger.Warn("Recognition upstream closed", zap.Error(err))
			}
			return
		}

		event, ok, err := ParseTranscriptEvent(message)
		if err != nil {
			s.logger.Warn("Malformed recognition message",
				zap.Int("size", len(message)),
				zap.Error(err))
			s.reportError(err)
			continue
		}
		if !ok {
			continue
		}

		select {
		case s.transcripts <- event:
		default:
			s.logger.Warn("Transcript consumer lagging, dropping event",
				zap.String("text", event.Text))
		}
	}
}

func (s *deepgramStream) reportError(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
