package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hireloop/interview-relay/domain/repositories"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig holds configuration for the Gemini text generator.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGeminiConfigFromEnv creates a GeminiConfig from environment variables.
func NewGeminiConfigFromEnv() GeminiConfig {
	return GeminiConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
}

// GeminiGenerator implements TextGenerator using Google's Gemini API
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// Ensure GeminiGenerator implements the TextGenerator interface
var _ repositories.TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new Gemini text generator
func NewGeminiGenerator(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// GenerateText implements repositories.TextGenerator
func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string, options repositories.GenerateOptions) (string, error) {
	generateConfig := &genai.GenerateContentConfig{}
	if options.SystemPrompt != "" {
		generateConfig.SystemInstruction = genai.NewContentFromText(options.SystemPrompt, genai.RoleUser)
	}
	if options.MaxTokens > 0 {
		generateConfig.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature > 0 {
		generateConfig.Temperature = genai.Ptr(options.Temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), generateConfig)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}

	content := resp.Text()
	if content == "" {
		return "", fmt.Errorf("content generation returned empty response")
	}

	g.logger.Debug("Generated text",
		zap.String("model", g.model),
		zap.Int("promptLength", len(prompt)),
		zap.Int("responseLength", len(content)))

	return content, nil
}
