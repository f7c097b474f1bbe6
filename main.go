package main

import (
	api "github.com/Floressek/MailAnalyzer/cmd/api"
	authdomain "github.com/Floressek/MailAnalyzer/internal/auth/domain"
	authRepo "github.com/Floressek/MailAnalyzer/internal/auth/repository"
	authUsecase "github.com/Floressek/MailAnalyzer/internal/auth/usecase"
	emaildomain "github.com/Floressek/MailAnalyzer/internal/email/domain"
	emailRepo "github.com/Floressek/MailAnalyzer/internal/email/repository"
	emailUsecase "github.com/Floressek/MailAnalyzer/internal/email/usecase"
	"github.com/Floressek/MailAnalyzer/pkg/ai"
	"github.com/Floressek/MailAnalyzer/pkg/config"
	"github.com/Floressek/MailAnalyzer/pkg/database"
	"github.com/Floressek/MailAnalyzer/pkg/logger"
	"github.com/Floressek/MailAnalyzer/pkg/provider"
)

func main() {
	cfg := config.Load()

	log := logger.New()
	defer log.Sync()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}

	if err := db.AutoMigrate(&authdomain.Credential{}, &emaildomain.EmailDocument{}, &emaildomain.AnalysisResult{}); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	// Repositories
	credentialRepo := authRepo.NewCredentialRepository(db)
	documentRepo := emailRepo.NewDocumentRepository(db)
	analysisRepo := emailRepo.NewAnalysisRepository(db)

	// Provider gateways
	registry := provider.NewRegistry(
		provider.NewGmailProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI),
		provider.NewOutlookProvider(cfg.MicrosoftClientID, cfg.MicrosoftClientSecret, cfg.MicrosoftTenant, cfg.MicrosoftRedirectURI),
	)

	// AI backend
	textService, err := ai.NewTextService(ai.FactoryConfig{
		Provider:        ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		CompletionModel: cfg.OpenAICompletionModel,
		EmbeddingModel:  cfg.OpenAIEmbeddingModel,
		OllamaBaseURL:   cfg.OllamaBaseURL,
		OllamaModel:     cfg.OllamaModel,
	})
	if err != nil {
		log.Fatalw("failed to initialize AI service", "error", err)
	}

	// Token manager with stored credentials
	tokenManager := authUsecase.NewTokenManager(credentialRepo, registry, cfg.EncryptionKey)
	if err := tokenManager.Load(); err != nil {
		log.Fatalw("failed to load stored credentials", "error", err)
	}

	// Background ingest pipeline
	ingestWorker := emailUsecase.NewIngestWorkerService(documentRepo, textService, cfg.IngestWorkers, cfg.IngestQueueSize)
	ingestWorker.Start()
	defer ingestWorker.Stop()

	summarizer := emailUsecase.NewSummarizer(textService, cfg.SummaryBatchSize)
	searchService := emailUsecase.NewSearchService(documentRepo, textService)

	emailUc := emailUsecase.NewEmailUsecase(registry, tokenManager, documentRepo, analysisRepo, summarizer, ingestWorker, cfg.DocumentRetentionDays)
	emailUc.StartRetentionJanitor()
	defer emailUc.StopRetentionJanitor()

	handler := api.NewHandler(registry, tokenManager, emailUc, searchService, cfg, db)

	log.Infow("starting server", "port", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
