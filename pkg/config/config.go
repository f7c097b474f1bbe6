package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	// AI provider selection: "openai", "ollama" or "auto"
	AIProvider            string
	OpenAIAPIKey          string
	OpenAICompletionModel string
	OpenAIEmbeddingModel  string
	OllamaBaseURL         string
	OllamaModel           string

	// OAuth clients
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURI     string
	MicrosoftClientID     string
	MicrosoftClientSecret string
	MicrosoftRedirectURI  string
	MicrosoftTenant       string

	// Pipeline tuning
	SummaryBatchSize      int
	IngestWorkers         int
	IngestQueueSize       int
	DocumentRetentionDays int

	// Key used to encrypt stored provider tokens
	EncryptionKey string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=mailanalyzer port=5432 sslmode=disable"),

		AIProvider:            getEnv("AI_PROVIDER", "auto"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAICompletionModel: getEnv("OPENAI_COMPLETION_MODEL", "gpt-4o-2024-08-06"),
		OpenAIEmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
		OllamaBaseURL:         getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:           getEnv("OLLAMA_MODEL", "llama3"),

		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:     getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/callback"),
		MicrosoftClientID:     getEnv("MICROSOFT_CLIENT_ID", ""),
		MicrosoftClientSecret: getEnv("MICROSOFT_CLIENT_SECRET", ""),
		MicrosoftRedirectURI:  getEnv("MICROSOFT_REDIRECT_URI", "http://localhost:8080/auth/callback"),
		MicrosoftTenant:       getEnv("MICROSOFT_TENANT", "common"),

		SummaryBatchSize:      getEnvInt("SUMMARY_BATCH_SIZE", 10),
		IngestWorkers:         getEnvInt("INGEST_WORKERS", 3),
		IngestQueueSize:       getEnvInt("INGEST_QUEUE_SIZE", 500),
		DocumentRetentionDays: getEnvInt("DOCUMENT_RETENTION_DAYS", 30),

		EncryptionKey: getEnv("ENCRYPTION_KEY", "change-me-in-production"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
