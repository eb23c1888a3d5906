package repositories

import "context"

// TextGenerator abstracts any text-generation provider.
type TextGenerator interface {
	// GenerateText takes a prompt and returns the model's reply.
	GenerateText(ctx context.Context, prompt string, options GenerateOptions) (string, error)
}

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	SystemPrompt string  `json:"system_prompt,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
}
