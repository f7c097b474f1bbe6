package usecase

import (
	"context"
	"time"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
)

type EmailUsecase interface {
	FetchMessages(ctx context.Context, providerName string, startDate, endDate time.Time) ([]*domain.EmailMessage, error)
	Analyze(ctx context.Context, providerName string, startDate, endDate time.Time) (*domain.AnalysisResult, error)
	GetAnalyses(providerName string, startDate, endDate *time.Time) ([]*domain.AnalysisResult, error)
	StartRetentionJanitor()
	StopRetentionJanitor()
}
