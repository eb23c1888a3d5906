package websocket

import (
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/entities"
	"github.com/hireloop/interview-relay/domain/repositories"
	"github.com/hireloop/interview-relay/internal/relay"
)

const defaultLanguage = "hi"

// TranscribeHandler serves the live transcription endpoint. Each connection
// gets its own relay session; binary frames go upstream, transcripts and
// errors come back as JSON text messages.
type TranscribeHandler struct {
	recognizer  repositories.SpeechRecognizer
	synthesizer repositories.SpeechSynthesizer
	generator   repositories.TextGenerator
	logger      *zap.Logger
}

func NewTranscribeHandler(
	recognizer repositories.SpeechRecognizer,
	synthesizer repositories.SpeechSynthesizer,
	generator repositories.TextGenerator,
	logger *zap.Logger,
) *TranscribeHandler {
	return &TranscribeHandler{
		recognizer:  recognizer,
		synthesizer: synthesizer,
		generator:   generator,
		logger:      logger,
	}
}

// Handle upgrades the connection and relays audio until the client leaves.
// Query params: language (default "hi"), respond=true to enable spoken
// replies on final transcripts.
func (h *TranscribeHandler) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("Failed to upgrade transcribe connection", zap.Error(err))
		return err
	}

	language := c.QueryParam("language")
	if language == "" {
		language = defaultLanguage
	}
	userID, _ := c.Get("userID").(string)

	entity := entities.NewRelaySession(userID, entities.RelayConfig{
		Language:   language,
		SampleRate: repositories.DefaultSampleRate,
	})
	logger := h.logger.With(zap.String("sessionID", entity.ID))

	var synthesizer repositories.SpeechSynthesizer
	var generator repositories.TextGenerator
	if c.QueryParam("respond") == "true" {
		synthesizer = h.synthesizer
		generator = h.generator
	}

	session := relay.NewSession(entity, h.recognizer, synthesizer, generator, logger)
	client := newClient(conn, logger)
	go client.writePump()
	go h.pumpSessionEvents(client, session)

	logger.Info("Transcribe connection opened", zap.String("language", language))

	client.prepareRead()
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Transcribe connection error", zap.Error(err))
			}
			break
		}
		switch messageType {
		case websocket.BinaryMessage:
			session.HandleAudio(payload)
		case websocket.TextMessage:
			// Control text from the client carries nothing actionable yet.
			logger.Debug("Ignoring text frame on transcribe endpoint")
		}
	}

	session.Close()
	client.close()
	logger.Info("Transcribe connection closed")
	return nil
}

// pumpSessionEvents turns session events into outbound wire messages.
func (h *TranscribeHandler) pumpSessionEvents(client *Client, session *relay.Session) {
	for event := range session.Events() {
		switch {
		case event.Transcript != nil:
			client.enqueueJSON(TranscriptMessage{
				Type:       "transcript",
				Transcript: event.Transcript.Text,
			})

		case event.Reply != "":
			client.enqueueJSON(ReplyMessage{Type: "reply", Text: event.Reply})
			for _, chunk := range splitChunks(event.Audio, ChunkSize) {
				if !client.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: chunk}) {
					return
				}
			}
			client.enqueueJSON(EndMessage{Type: "end"})

		case event.Err != nil:
			client.enqueueJSON(TranscribeErrorMessage{
				Type:  "error",
				Error: event.Err.Error(),
			})
			if event.Fatal {
				client.close()
			}
		}
	}
}
