package ai

import (
	"fmt"

	"github.com/Floressek/MailAnalyzer/pkg/logger"
	"github.com/Floressek/MailAnalyzer/pkg/openai"
)

// FactoryConfig carries the settings needed to construct a TextService.
type FactoryConfig struct {
	Provider        ProviderType
	OpenAIAPIKey    string
	CompletionModel string
	EmbeddingModel  string
	OllamaBaseURL   string
	OllamaModel     string
}

// NewTextService builds the configured text service. With ProviderAuto it
// prefers OpenAI when an API key is configured and falls back to Ollama.
func NewTextService(cfg FactoryConfig) (TextService, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY is not set")
		}
		logger.Log.Infow("using OpenAI text service", "model", cfg.CompletionModel)
		return openai.NewService(cfg.OpenAIAPIKey, cfg.CompletionModel, cfg.EmbeddingModel), nil

	case ProviderOllama:
		logger.Log.Infow("using Ollama text service", "model", cfg.OllamaModel)
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	case ProviderAuto, "":
		if cfg.OpenAIAPIKey != "" {
			logger.Log.Infow("using OpenAI text service", "model", cfg.CompletionModel)
			return openai.NewService(cfg.OpenAIAPIKey, cfg.CompletionModel, cfg.EmbeddingModel), nil
		}
		logger.Log.Infow("no OpenAI API key, falling back to Ollama", "model", cfg.OllamaModel)
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}
