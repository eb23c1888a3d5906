package repositories

import "context"

// SpeechRecognizer abstracts a streaming speech-recognition upstream.
type SpeechRecognizer interface {
	// Connect opens a recognition stream configured for one relay session.
	// The returned stream is exclusively owned by the caller.
	Connect(ctx context.Context, config RecognitionConfig) (RecognitionStream, error)
}

// RecognitionStream is a live connection to the recognition upstream.
type RecognitionStream interface {
	// SendAudio forwards one binary audio frame. It is fire-and-forget and
	// silently no-ops when the stream is not open.
	SendAudio(frame []byte)
	// Transcripts delivers incremental recognition results. The channel is
	// closed when the stream ends.
	Transcripts() <-chan TranscriptEvent
	// Errors delivers non-fatal protocol errors observed on the stream.
	Errors() <-chan error
	// Close shuts the stream down. Safe to call multiple times.
	Close() error
}

// RecognitionConfig represents audio configuration for speech recognition
type RecognitionConfig struct {
	Model          string `json:"model"`
	SampleRate     int    `json:"sample_rate"`
	Channels       int    `json:"channels"`
	Language       string `json:"language"`
	InterimResults bool   `json:"interim_results"`
	Punctuate      bool   `json:"punctuate"`
}

// TranscriptEvent is one incremental or final recognition result.
type TranscriptEvent struct {
	Text       string  `json:"text"`
	IsFinal    bool    `json:"is_final"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
