package domain

import "time"

// Credential holds the OAuth tokens for one provider account. Tokens are
// encrypted before they reach the database.
type Credential struct {
	Provider     string    `gorm:"primaryKey" json:"provider"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
