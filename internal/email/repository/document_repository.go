package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
)

type DocumentRepository interface {
	Upsert(doc *domain.EmailDocument) error
	Query(provider string, startDate, endDate *time.Time) ([]*domain.EmailDocument, error)
	QueryAll() ([]*domain.EmailDocument, error)
	DeleteExpired(olderThan time.Time) (int64, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Upsert inserts a document or refreshes an existing one for the same
// provider and email id, keeping re-ingestion idempotent.
func (r *documentRepository) Upsert(doc *domain.EmailDocument) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "email_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subject", "from", "content", "received_date",
			"fetched_at", "analyzed_at", "labels", "embedding",
		}),
	}).Create(doc).Error
}

// Query filters by provider (empty matches all) and an optional
// received-date range.
func (r *documentRepository) Query(provider string, startDate, endDate *time.Time) ([]*domain.EmailDocument, error) {
	query := r.db.Model(&domain.EmailDocument{})
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}
	if startDate != nil {
		query = query.Where("received_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("received_date <= ?", *endDate)
	}

	var docs []*domain.EmailDocument
	if err := query.Order("received_date desc").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) QueryAll() ([]*domain.EmailDocument, error) {
	var docs []*domain.EmailDocument
	if err := r.db.Order("received_date desc").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteExpired drops documents fetched before the retention cutoff.
func (r *documentRepository) DeleteExpired(olderThan time.Time) (int64, error) {
	result := r.db.Where("fetched_at < ?", olderThan).Delete(&domain.EmailDocument{})
	return result.RowsAffected, result.Error
}
