package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hireloop/interview-relay/adapters/llm"
	"github.com/hireloop/interview-relay/adapters/stt"
	"github.com/hireloop/interview-relay/adapters/tts"
	"github.com/hireloop/interview-relay/domain/repositories"
	"github.com/hireloop/interview-relay/internal/api"
	"github.com/hireloop/interview-relay/internal/auth"
	"github.com/hireloop/interview-relay/internal/websocket"
	"github.com/hireloop/interview-relay/usecase"
)

func main() {
	// Load environment variables from .env file if present
	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Initialize adapters
	recognizer, err := stt.NewDeepgramRecognizer(stt.NewDeepgramConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech recognizer", zap.Error(err))
	}
	synthesizer, err := tts.NewLMNTSynthesizer(tts.NewLMNTConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech synthesizer", zap.Error(err))
	}
	generator := newTextGenerator(logger)

	// Initialize usecase services
	questionService := usecase.NewQuestionService(generator, logger)

	// Optional JWT gate for websocket endpoints
	var authenticator *auth.Authenticator
	if os.Getenv("JWT_SECRET") != "" {
		authenticator, err = auth.NewAuthenticatorFromEnv()
		if err != nil {
			logger.Fatal("Failed to initialize authenticator", zap.Error(err))
		}
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, api.Handlers{
		Transcribe:    websocket.NewTranscribeHandler(recognizer, synthesizer, generator, logger),
		Speech:        websocket.NewSpeechHandler(synthesizer, logger),
		Interview:     websocket.NewInterviewHandler(generator, logger),
		Questions:     questionService,
		Authenticator: authenticator,
		Logger:        logger,
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newTextGenerator picks the text-generation backend from LLM_PROVIDER,
// defaulting to OpenAI.
func newTextGenerator(logger *zap.Logger) repositories.TextGenerator {
	switch os.Getenv("LLM_PROVIDER") {
	case "gemini":
		generator, err := llm.NewGeminiGenerator(context.Background(), llm.NewGeminiConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini generator", zap.Error(err))
		}
		return generator
	default:
		generator, err := llm.NewOpenAIGenerator(llm.NewOpenAIConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize OpenAI generator", zap.Error(err))
		}
		return generator
	}
}
