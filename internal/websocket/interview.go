package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/domain/entities"
	"github.com/hireloop/interview-relay/domain/repositories"
)

const generationTimeout = 60 * time.Second

const interviewerSystemPrompt = "You are a technical interviewer conducting a %s level programming interview in %s. " +
	"Ask one question at a time, keep questions concise, and give brief constructive feedback on answers before moving on."

// InterviewHandler serves the AI interview endpoint: a JSON conversation
// where the model asks questions, evaluates answers, and summarizes at the
// end. One interview per connection.
type InterviewHandler struct {
	generator repositories.TextGenerator
	logger    *zap.Logger
}

func NewInterviewHandler(generator repositories.TextGenerator, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		generator: generator,
		logger:    logger,
	}
}

// Handle upgrades the connection and runs the init/answer/end protocol.
func (h *InterviewHandler) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("Failed to upgrade interview connection", zap.Error(err))
		return err
	}

	client := newClient(conn, h.logger)
	go client.writePump()

	var session *entities.InterviewSession

	client.prepareRead()
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Interview connection error", zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var request InterviewRequest
		if err := json.Unmarshal(payload, &request); err != nil {
			client.enqueueJSON(InterviewMessage{Type: "error", Content: "invalid request payload"})
			continue
		}

		switch request.Type {
		case "init":
			if session != nil {
				client.enqueueJSON(InterviewMessage{Type: "error", Content: "interview already started"})
				continue
			}
			session = entities.NewInterviewSession(request.RoomID, request.UserID, request.Language, request.Difficulty)
			h.askQuestion(client, session)

		case "answer":
			if session == nil {
				client.enqueueJSON(InterviewMessage{Type: "error", Content: "send init first"})
				continue
			}
			h.evaluateAnswer(client, session, request.Content)

		case "end":
			if session == nil {
				client.enqueueJSON(InterviewMessage{Type: "error", Content: "send init first"})
				continue
			}
			h.summarize(client, session)
			session = nil

		default:
			client.enqueueJSON(InterviewMessage{Type: "error", Content: fmt.Sprintf("unknown message type %q", request.Type)})
		}
	}

	client.close()
	return nil
}

func (h *InterviewHandler) askQuestion(client *Client, session *entities.InterviewSession) {
	prompt := "Ask the candidate the next technical interview question."
	if len(session.Questions) > 0 {
		prompt = fmt.Sprintf("Previous questions were:\n%s\nAsk a different technical interview question.",
			strings.Join(session.Questions, "\n"))
	}

	content, err := h.generate(session, prompt)
	if err != nil {
		h.logger.Error("Question generation failed",
			zap.String("roomID", session.RoomID), zap.Error(err))
		client.enqueueJSON(InterviewMessage{Type: "error", Content: "failed to generate question"})
		return
	}

	session.AddQuestion(content)
	client.enqueueJSON(InterviewMessage{Type: "question", Content: content})
}

func (h *InterviewHandler) evaluateAnswer(client *Client, session *entities.InterviewSession, answer string) {
	last := ""
	if len(session.Questions) > 0 {
		last = session.Questions[len(session.Questions)-1]
	}
	prompt := fmt.Sprintf("The question was: %s\nThe candidate answered: %s\nGive brief feedback on the answer.", last, answer)

	content, err := h.generate(session, prompt)
	if err != nil {
		h.logger.Error("Feedback generation failed",
			zap.String("roomID", session.RoomID), zap.Error(err))
		client.enqueueJSON(InterviewMessage{Type: "error", Content: "failed to evaluate answer"})
		return
	}

	client.enqueueJSON(InterviewMessage{Type: "feedback", Content: content})
	h.askQuestion(client, session)
}

func (h *InterviewHandler) summarize(client *Client, session *entities.InterviewSession) {
	prompt := fmt.Sprintf("The interview covered these questions:\n%s\nSummarize the candidate's performance in a few sentences.",
		strings.Join(session.Questions, "\n"))

	content, err := h.generate(session, prompt)
	if err != nil {
		h.logger.Error("Summary generation failed",
			zap.String("roomID", session.RoomID), zap.Error(err))
		client.enqueueJSON(InterviewMessage{Type: "error", Content: "failed to summarize interview"})
		return
	}

	client.enqueueJSON(InterviewMessage{Type: "summary", Content: content})
}

func (h *InterviewHandler) generate(session *entities.InterviewSession, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	return h.generator.GenerateText(ctx, prompt, repositories.GenerateOptions{
		SystemPrompt: fmt.Sprintf(interviewerSystemPrompt, session.Difficulty, session.Language),
	})
}
