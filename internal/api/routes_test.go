package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/hireloop/interview-relay/adapters/llm"
	"github.com/hireloop/interview-relay/adapters/stt"
	"github.com/hireloop/interview-relay/adapters/tts"
	"github.com/hireloop/interview-relay/internal/auth"
	"github.com/hireloop/interview-relay/internal/websocket"
	"github.com/hireloop/interview-relay/usecase"
)

func newTestHandlers(t *testing.T, generator *llm.MockGenerator, authenticator *auth.Authenticator) Handlers {
	t.Helper()
	logger := zaptest.NewLogger(t)
	recognizer := stt.NewMockRecognizer(logger)
	synthesizer := tts.NewMockSynthesizer([]byte{1})
	return Handlers{
		Transcribe:    websocket.NewTranscribeHandler(recognizer, synthesizer, generator, logger),
		Speech:        websocket.NewSpeechHandler(synthesizer, logger),
		Interview:     websocket.NewInterviewHandler(generator, logger),
		Questions:     usecase.NewQuestionService(generator, logger),
		Authenticator: authenticator,
		Logger:        logger,
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := echo.New()
	InitRoutes(e, newTestHandlers(t, llm.NewMockGenerator(), nil))

	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if !strings.Contains(recorder.Body.String(), "ok") {
		t.Errorf("body = %s", recorder.Body.String())
	}
}

func TestQuestionsEndpoint(t *testing.T) {
	generator := llm.NewMockGenerator()
	generator.Reply = "1. What is a slice?\n2. Explain interfaces."
	e := echo.New()
	InitRoutes(e, newTestHandlers(t, generator, nil))

	body := strings.NewReader(`{"document":"Resume: Go developer"}`)
	request := httptest.NewRequest(http.MethodPost, "/api/v1/questions", body)
	request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "What is a slice?") {
		t.Errorf("body = %s", recorder.Body.String())
	}
}

func TestQuestionsEndpoint_EmptyDocument(t *testing.T) {
	e := echo.New()
	InitRoutes(e, newTestHandlers(t, llm.NewMockGenerator(), nil))

	body := strings.NewReader(`{"document":""}`)
	request := httptest.NewRequest(http.MethodPost, "/api/v1/questions", body)
	request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusUnprocessableEntity)
	}
}

func TestWebSocketEndpointsRejectMissingToken(t *testing.T) {
	authenticator, err := auth.NewAuthenticator([]byte("test-secret"))
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	e := echo.New()
	InitRoutes(e, newTestHandlers(t, llm.NewMockGenerator(), authenticator))

	for _, path := range []string{"/ws/transcribe", "/ws/speech", "/ws/ai-interview"} {
		request := httptest.NewRequest(http.MethodGet, path, nil)
		recorder := httptest.NewRecorder()
		e.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", path, recorder.Code, http.StatusUnauthorized)
		}
	}
}

func TestTokenEndpoint(t *testing.T) {
	authenticator, _ := auth.NewAuthenticator([]byte("test-secret"))
	e := echo.New()
	InitRoutes(e, newTestHandlers(t, llm.NewMockGenerator(), authenticator))

	body := strings.NewReader(`{"user_id":"user-7","role":"recruiter"}`)
	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", body)
	request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "token") {
		t.Errorf("body = %s", recorder.Body.String())
	}
}
