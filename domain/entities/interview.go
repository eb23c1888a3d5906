package entities

import (
	"time"

	"github.com/google/uuid"
)

// InterviewSession tracks one mock-interview conversation. Sessions live in
// memory only and die with the client socket.
type InterviewSession struct {
	RoomID     string    `json:"room_id"`
	UserID     string    `json:"user_id,omitempty"`
	Language   string    `json:"language"`
	Difficulty string    `json:"difficulty"`
	StartedAt  time.Time `json:"started_at"`
	Questions  []string  `json:"questions"`
}

// NewInterviewSession creates an interview session, generating a room id when
// the client did not supply one.
func NewInterviewSession(roomID, userID, language, difficulty string) *InterviewSession {
	if roomID == "" {
		roomID = uuid.NewString()
	}
	if difficulty == "" {
		difficulty = "intermediate"
	}
	return &InterviewSession{
		RoomID:     roomID,
		UserID:     userID,
		Language:   language,
		Difficulty: difficulty,
		StartedAt:  time.Now(),
	}
}

// AddQuestion records a question asked during the interview.
func (s *InterviewSession) AddQuestion(question string) {
	s.Questions = append(s.Questions, question)
}
