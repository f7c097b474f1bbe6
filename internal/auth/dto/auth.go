package dto

import "time"

type AuthenticateRequest struct {
	Provider string `json:"provider" binding:"required"`
	AuthCode string `json:"authCode" binding:"required"`
}

type AuthURLResponse struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

type TokenStatus struct {
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expiresAt"`
	Expired   bool      `json:"expired"`
}
