package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Floressek/MailAnalyzer/internal/auth/domain"
)

type CredentialRepository interface {
	Upsert(cred *domain.Credential) error
	GetByProvider(provider string) (*domain.Credential, error)
	Delete(provider string) error
	List() ([]*domain.Credential, error)
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Upsert(cred *domain.Credential) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}},
		UpdateAll: true,
	}).Create(cred).Error
}

func (r *credentialRepository) GetByProvider(provider string) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.db.Where("provider = ?", provider).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) Delete(provider string) error {
	return r.db.Where("provider = ?", provider).Delete(&domain.Credential{}).Error
}

func (r *credentialRepository) List() ([]*domain.Credential, error) {
	var creds []*domain.Credential
	if err := r.db.Order("provider asc").Find(&creds).Error; err != nil {
		return nil, err
	}
	return creds, nil
}
