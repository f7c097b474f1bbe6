package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authusecase "github.com/Floressek/MailAnalyzer/internal/auth/usecase"
	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/internal/email/repository"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
	"github.com/Floressek/MailAnalyzer/pkg/logger"
	"github.com/Floressek/MailAnalyzer/pkg/metrics"
	"github.com/Floressek/MailAnalyzer/pkg/provider"
)

type emailUsecase struct {
	registry     *provider.Registry
	tokenManager *authusecase.TokenManager
	documentRepo repository.DocumentRepository
	analysisRepo repository.AnalysisRepository
	summarizer   *Summarizer
	ingestWorker *IngestWorkerService

	retentionDays int
	janitorStop   chan struct{}
}

func NewEmailUsecase(
	registry *provider.Registry,
	tokenManager *authusecase.TokenManager,
	documentRepo repository.DocumentRepository,
	analysisRepo repository.AnalysisRepository,
	summarizer *Summarizer,
	ingestWorker *IngestWorkerService,
	retentionDays int,
) EmailUsecase {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &emailUsecase{
		registry:      registry,
		tokenManager:  tokenManager,
		documentRepo:  documentRepo,
		analysisRepo:  analysisRepo,
		summarizer:    summarizer,
		ingestWorker:  ingestWorker,
		retentionDays: retentionDays,
		janitorStop:   make(chan struct{}),
	}
}

// FetchMessages pulls messages from a provider for a date range and hands
// them to the ingest pipeline. The fetched messages are returned without
// waiting for ingestion.
func (u *emailUsecase) FetchMessages(ctx context.Context, providerName string, startDate, endDate time.Time) ([]*domain.EmailMessage, error) {
	gateway, err := u.registry.Resolve(providerName)
	if err != nil {
		return nil, err
	}

	token, err := u.tokenManager.EnsureFresh(ctx, providerName)
	if err != nil {
		return nil, err
	}

	messages, err := gateway.ListMessages(ctx, token.AccessToken, startDate, endDate)
	if err != nil {
		return nil, err
	}

	queued := u.ingestWorker.QueueMessages(gateway.Name(), messages)
	logger.Log.Infow("fetched messages", "provider", gateway.Name(), "count", len(messages), "queued", queued)

	return messages, nil
}

// Analyze fetches a date range and runs the map-reduce summarization over
// it, persisting the result.
func (u *emailUsecase) Analyze(ctx context.Context, providerName string, startDate, endDate time.Time) (*domain.AnalysisResult, error) {
	start := time.Now()

	messages, err := u.FetchMessages(ctx, providerName, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, apperr.ErrEmptyCorpus
	}

	batchSummaries, finalSummary, err := u.summarizer.Summarize(ctx, messages)
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{
		ID:             uuid.New().String(),
		Provider:       provider.Normalize(providerName),
		StartDate:      startDate,
		EndDate:        endDate,
		TotalEmails:    len(messages),
		BatchSummaries: batchSummaries,
		FinalSummary:   finalSummary,
		CreatedAt:      time.Now(),
	}

	if err := u.analysisRepo.Insert(result); err != nil {
		return nil, &apperr.PersistenceError{Op: "save analysis", Err: err}
	}

	metrics.ObserveAnalysis(result.Provider, time.Since(start))
	logger.Log.Infow("analysis complete", "provider", result.Provider, "emails", result.TotalEmails, "batches", len(batchSummaries), "duration", time.Since(start))

	return result, nil
}

// GetAnalyses returns stored analyses for a provider, optionally limited to
// windows overlapping a date range.
func (u *emailUsecase) GetAnalyses(providerName string, startDate, endDate *time.Time) ([]*domain.AnalysisResult, error) {
	if _, err := u.registry.Resolve(providerName); err != nil {
		return nil, err
	}

	results, err := u.analysisRepo.Query(provider.Normalize(providerName), startDate, endDate)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "query analyses", Err: err}
	}
	return results, nil
}

// StartRetentionJanitor periodically removes documents past the retention
// window. Stored analyses are unaffected.
func (u *emailUsecase) StartRetentionJanitor() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -u.retentionDays)
				deleted, err := u.documentRepo.DeleteExpired(cutoff)
				if err != nil {
					logger.Log.Errorw("retention sweep failed", "error", err)
					continue
				}
				if deleted > 0 {
					logger.Log.Infow("retention sweep removed expired documents", "count", deleted)
				}
			case <-u.janitorStop:
				return
			}
		}
	}()
}

// StopRetentionJanitor stops the retention sweep goroutine.
func (u *emailUsecase) StopRetentionJanitor() {
	close(u.janitorStop)
}
