package api

// QuestionRequest represents the request payload for document-based
// question generation
type QuestionRequest struct {
	Document string `json:"document" validate:"required"`
}

// QuestionResponse represents the generated interview questions
type QuestionResponse struct {
	Questions []string `json:"questions"`
}

// TokenRequest represents the request payload for issuing a session token
type TokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role"`
}

// TokenResponse represents an issued session token
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
