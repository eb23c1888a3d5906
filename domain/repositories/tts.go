package repositories

import "context"

// SpeechSynthesizer abstracts a speech-synthesis upstream.
type SpeechSynthesizer interface {
	// Synthesize converts text to a complete audio payload. A nominally
	// successful call returning zero bytes is reported as an error, never as
	// an empty payload.
	Synthesize(ctx context.Context, text string, request SynthesisRequest) ([]byte, error)
}

// SynthesisRequest carries voice parameters for one synthesis call.
type SynthesisRequest struct {
	Voice      string  `json:"voice"`
	Format     string  `json:"format"`
	Language   string  `json:"language"`
	SampleRate int     `json:"sample_rate"`
	Speed      float64 `json:"speed"`
}

// Synthesis defaults matching the upstream endpoint's documented behavior.
const (
	DefaultVoice      = "lily"
	DefaultFormat     = "mp3"
	DefaultSampleRate = 16000
	DefaultSpeed      = 1.0
)

// WithDefaults returns a copy of the request with unset fields filled in.
func (r SynthesisRequest) WithDefaults() SynthesisRequest {
	if r.Voice == "" {
		r.Voice = DefaultVoice
	}
	if r.Format == "" {
		r.Format = DefaultFormat
	}
	if r.SampleRate == 0 {
		r.SampleRate = DefaultSampleRate
	}
	if r.Speed == 0 {
		r.Speed = DefaultSpeed
	}
	return r
}
