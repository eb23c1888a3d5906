package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/internal/auth"
	"github.com/hireloop/interview-relay/internal/websocket"
	"github.com/hireloop/interview-relay/usecase"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Transcribe *websocket.TranscribeHandler
	Speech     *websocket.SpeechHandler
	Interview  *websocket.InterviewHandler
	Questions  *usecase.QuestionService

	// Authenticator is optional; when nil the websocket endpoints accept
	// anonymous connections.
	Authenticator *auth.Authenticator
	Logger        *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h Handlers) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "interview-relay",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/questions", func(c echo.Context) error {
		return generateQuestions(c, h)
	})
	if h.Authenticator != nil {
		v1.POST("/auth/token", func(c echo.Context) error {
			return issueToken(c, h)
		})
	}

	// WebSocket endpoints, token-gated when an authenticator is configured
	e.GET("/ws/transcribe", withAuth(h, h.Transcribe.Handle))
	e.GET("/ws/speech", withAuth(h, h.Speech.Handle))
	e.GET("/ws/ai-interview", withAuth(h, h.Interview.Handle))
}

func generateQuestions(c echo.Context, h Handlers) error {
	var req QuestionRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Error("Failed to bind question request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	questions, err := h.Questions.GenerateFromDocument(c.Request().Context(), req.Document)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "generation_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, QuestionResponse{Questions: questions})
}

func issueToken(c echo.Context, h Handlers) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "user_id is required",
		})
	}
	if req.Role == "" {
		req.Role = "candidate"
	}

	token, err := h.Authenticator.GenerateUserToken(req.UserID, req.Role)
	if err != nil {
		h.Logger.Error("Failed to generate token",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// withAuth wraps a websocket handler with JWT validation. The token comes
// from the Authorization header or, for browser clients that cannot set
// headers on websocket upgrades, the token query param.
func withAuth(h Handlers, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.Authenticator == nil {
			return next(c)
		}

		token := c.QueryParam("token")
		if authHeader := c.Request().Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if token == "" {
			h.Logger.Warn("WebSocket connection rejected: missing token")
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "JWT token is required",
			})
		}

		claims, err := h.Authenticator.ValidateToken(token)
		if err != nil {
			h.Logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired JWT token",
			})
		}

		c.Set("userID", claims.UserID)
		return next(c)
	}
}
