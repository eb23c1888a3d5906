package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/repositories"
)

const synthesisTimeout = 30 * time.Second

// SpeechHandler serves the synthesis endpoint: each inbound JSON request is
// answered with ordered binary audio chunks terminated by an end marker.
// Requests are processed one at a time per connection, in arrival order.
type SpeechHandler struct {
	synthesizer repositories.SpeechSynthesizer
	logger      *zap.Logger
}

func NewSpeechHandler(synthesizer repositories.SpeechSynthesizer, logger *zap.Logger) *SpeechHandler {
	return &SpeechHandler{
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Handle upgrades the connection and serves synthesis requests until the
// client disconnects. A failed request reports an error message and keeps
// the connection open for the next one.
func (h *SpeechHandler) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("Failed to upgrade speech connection", zap.Error(err))
		return err
	}

	client := newClient(conn, h.logger)
	go client.writePump()

	h.logger.Info("Speech connection opened")

	client.prepareRead()
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Speech connection error", zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var request SpeechRequest
		if err := json.Unmarshal(payload, &request); err != nil {
			client.enqueueJSON(SpeechErrorMessage{Type: "error", Message: "invalid request payload"})
			continue
		}
		if strings.TrimSpace(request.Text) == "" {
			client.enqueueJSON(SpeechErrorMessage{Type: "error", Message: "text is required"})
			continue
		}

		h.streamSynthesis(client, request)
	}

	client.close()
	h.logger.Info("Speech connection closed")
	return nil
}

// streamSynthesis runs one synthesis and streams the result. Either a full
// chunk sequence plus end marker goes out, or a single error message.
func (h *SpeechHandler) streamSynthesis(client *Client, request SpeechRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), synthesisTimeout)
	defer cancel()

	audio, err := h.synthesizer.Synthesize(ctx, request.Text, repositories.SynthesisRequest{
		Voice:    request.Voice,
		Language: request.Language,
		Speed:    request.Speed,
	})
	if err != nil {
		h.logger.Error("Synthesis failed", zap.Error(err))
		client.enqueueJSON(SpeechErrorMessage{Type: "error", Message: err.Error()})
		return
	}

	for _, chunk := range splitChunks(audio, ChunkSize) {
		if !client.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: chunk}) {
			return
		}
	}
	client.enqueueJSON(EndMessage{Type: "end"})
}
