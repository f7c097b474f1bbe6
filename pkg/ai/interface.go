package ai

import "context"

// TextService is the interface for the hosted language model gateway.
// Implement this interface to add new AI providers (OpenAI, Ollama, etc.)
type TextService interface {
	// Summarize condenses a block of email text into a summary.
	Summarize(ctx context.Context, text string) (string, error)
	// Embed returns the embedding vector for a text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Complete answers an arbitrary prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
