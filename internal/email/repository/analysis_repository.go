package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
)

type AnalysisRepository interface {
	Insert(result *domain.AnalysisResult) error
	Query(provider string, startDate, endDate *time.Time) ([]*domain.AnalysisResult, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Insert appends a new analysis record. Results are never updated in place.
func (r *analysisRepository) Insert(result *domain.AnalysisResult) error {
	return r.db.Create(result).Error
}

// Query returns analyses for a provider whose window overlaps the given
// range, newest first.
func (r *analysisRepository) Query(provider string, startDate, endDate *time.Time) ([]*domain.AnalysisResult, error) {
	query := r.db.Where("provider = ?", provider)
	if startDate != nil {
		query = query.Where("end_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("start_date <= ?", *endDate)
	}

	var results []*domain.AnalysisResult
	if err := query.Order("created_at desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
