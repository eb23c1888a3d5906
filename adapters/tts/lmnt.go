package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/repositories"
)

const (
	defaultAPIBaseURL     = "https://api.lmnt.com"
	synthesisPath         = "/v1/ai/speech/bytes"
	defaultRequestTimeout = 30 * time.Second
	defaultRetryAfter     = 5 * time.Second
)

// ErrEmptyAudio reports a nominally successful synthesis call that returned
// no audio bytes.
var ErrEmptyAudio = errors.New("synthesis returned empty audio payload")

// APIError is a non-success response from the synthesis upstream.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lmnt API error: %d - %s", e.StatusCode, e.Message)
}

// RateLimitError is a 429 response. RetryAfter is a hint for the caller's
// backoff policy; the connector itself never retries.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("lmnt rate limited: %s (retry after %s)", e.Message, e.RetryAfter)
}

// LMNTConfig holds configuration for the LMNT synthesizer.
// Required fields:
// - APIKey: Your LMNT API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the LMNT API (default: "https://api.lmnt.com")
// - Timeout: Per-call HTTP timeout (default: 30s)
type LMNTConfig struct {
	APIKey     string
	APIBaseURL string
	Timeout    time.Duration
}

// ValidateLMNTConfig validates the LMNTConfig
func ValidateLMNTConfig(config LMNTConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("lmnt API key is required")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	return nil
}

// NewLMNTConfigFromEnv creates an LMNTConfig from environment variables.
func NewLMNTConfigFromEnv() LMNTConfig {
	config := LMNTConfig{
		APIKey:     os.Getenv("LMNT_API_KEY"),
		APIBaseURL: os.Getenv("LMNT_API_BASE_URL"),
	}
	if timeoutStr := os.Getenv("LMNT_TIMEOUT_SECONDS"); timeoutStr != "" {
		if seconds, err := strconv.Atoi(timeoutStr); err == nil && seconds > 0 {
			config.Timeout = time.Duration(seconds) * time.Second
		}
	}
	return config
}

// LMNTSynthesizer implements SpeechSynthesizer using the LMNT speech API.
type LMNTSynthesizer struct {
	apiKey     string
	apiBaseURL string
	client     *http.Client
	logger     *zap.Logger
}

// Ensure LMNTSynthesizer implements the SpeechSynthesizer interface
var _ repositories.SpeechSynthesizer = (*LMNTSynthesizer)(nil)

// NewLMNTSynthesizer creates a new LMNT synthesizer instance
func NewLMNTSynthesizer(config LMNTConfig, logger *zap.Logger) (*LMNTSynthesizer, error) {
	if err := ValidateLMNTConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	return &LMNTSynthesizer{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Synthesize issues one blocking synthesis call and returns the complete
// audio payload. Every failure is surfaced to the caller; no retries.
func (l *LMNTSynthesizer) Synthesize(ctx context.Context, text string, request repositories.SynthesisRequest) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	request = request.WithDefaults()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	fields := map[string]string{
		"text":           text,
		"voice":          request.Voice,
		"format":         request.Format,
		"language":       request.Language,
		"sample_rate":    strconv.Itoa(request.SampleRate),
		"speed":          strconv.FormatFloat(request.Speed, 'f', -1, 64),
		"conversational": "true",
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to build form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	url := l.apiBaseURL + synthesisPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("X-API-Key", l.apiKey)

	l.logger.Debug("Sending synthesis request",
		zap.String("voice", request.Voice),
		zap.String("language", request.Language),
		zap.Int("textLength", len(text)))

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, l.decodeError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	l.logger.Info("Synthesis completed",
		zap.String("voice", request.Voice),
		zap.Int("audioBytes", len(audio)))

	return audio, nil
}

// decodeError turns a non-success response into a typed error. The body is
// parsed as JSON when possible, falling back to the raw text.
func (l *LMNTSynthesizer) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	message := strings.TrimSpace(string(raw))
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != "" {
		message = decoded.Error
	}
	if message == "" {
		message = "unknown error"
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := defaultRetryAfter
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{RetryAfter: retryAfter, Message: message}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
