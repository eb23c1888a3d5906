package stt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hireloop/interview-relay/domain/repositories"
)

// transcriptMessage mirrors the upstream transcript event schema. Only the
// fields the relay consumes are decoded.
type transcriptMessage struct {
	IsFinal bool `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
		DetectedLanguage string `json:"detected_language"`
	} `json:"channel"`
}

// ParseTranscriptEvent decodes one upstream message into a TranscriptEvent.
// It returns ok=false for well-formed messages that carry no usable
// transcript, such as metadata events or empty interim results.
func ParseTranscriptEvent(message []byte) (repositories.TranscriptEvent, bool, error) {
	var decoded transcriptMessage
	if err := json.Unmarshal(message, &decoded); err != nil {
		return repositories.TranscriptEvent{}, false, fmt.Errorf("invalid transcript message: %w", err)
	}

	if len(decoded.Channel.Alternatives) == 0 {
		return repositories.TranscriptEvent{}, false, nil
	}

	best := decoded.Channel.Alternatives[0]
	text := strings.TrimSpace(best.Transcript)
	if text == "" {
		return repositories.TranscriptEvent{}, false, nil
	}

	return repositories.TranscriptEvent{
		Text:       text,
		IsFinal:    decoded.IsFinal,
		Language:   decoded.Channel.DetectedLanguage,
		Confidence: best.Confidence,
	}, true, nil
}
