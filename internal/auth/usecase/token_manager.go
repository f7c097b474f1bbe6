package usecase

import (
	"context"
	"sync"
	"time"

	authdomain "github.com/Floressek/MailAnalyzer/internal/auth/domain"
	"github.com/Floressek/MailAnalyzer/internal/auth/repository"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
	"github.com/Floressek/MailAnalyzer/pkg/crypto"
	"github.com/Floressek/MailAnalyzer/pkg/logger"
	"github.com/Floressek/MailAnalyzer/pkg/provider"
)

// refreshWindow is how close to expiry a token may get before EnsureFresh
// refreshes it.
const refreshWindow = 5 * time.Minute

// Token is the decrypted in-memory form of a stored credential.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenManager keeps per-provider OAuth tokens in memory with write-through
// persistence. Tokens are encrypted before they reach the repository.
type TokenManager struct {
	mu        sync.RWMutex
	tokens    map[string]*Token
	repo      repository.CredentialRepository
	registry  *provider.Registry
	secretKey string
}

func NewTokenManager(repo repository.CredentialRepository, registry *provider.Registry, secretKey string) *TokenManager {
	return &TokenManager{
		tokens:    make(map[string]*Token),
		repo:      repo,
		registry:  registry,
		secretKey: secretKey,
	}
}

// Load hydrates the in-memory cache from the repository. Credentials that
// fail to decrypt are skipped, forcing a re-authentication for that provider.
func (m *TokenManager) Load() error {
	creds, err := m.repo.List()
	if err != nil {
		return &apperr.PersistenceError{Op: "load credentials", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cred := range creds {
		token, err := m.decrypt(cred)
		if err != nil {
			logger.Log.Warnw("skipping credential that failed to decrypt", "provider", cred.Provider, "error", err)
			continue
		}
		m.tokens[cred.Provider] = token
	}
	logger.Log.Infow("loaded stored credentials", "count", len(m.tokens))
	return nil
}

// Store saves a token for a provider, replacing any previous one.
func (m *TokenManager) Store(providerName string, token *Token) error {
	name := provider.Normalize(providerName)

	cred, err := m.encrypt(name, token)
	if err != nil {
		return err
	}
	if err := m.repo.Upsert(cred); err != nil {
		return &apperr.PersistenceError{Op: "store credential", Err: err}
	}

	m.mu.Lock()
	m.tokens[name] = token
	m.mu.Unlock()
	return nil
}

// Get returns the stored token for a provider.
func (m *TokenManager) Get(providerName string) (*Token, error) {
	m.mu.RLock()
	token, ok := m.tokens[provider.Normalize(providerName)]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrTokenNotFound
	}
	return token, nil
}

// Remove deletes the token for a provider from memory and storage.
func (m *TokenManager) Remove(providerName string) error {
	name := provider.Normalize(providerName)

	if err := m.repo.Delete(name); err != nil {
		return &apperr.PersistenceError{Op: "delete credential", Err: err}
	}

	m.mu.Lock()
	delete(m.tokens, name)
	m.mu.Unlock()
	return nil
}

// List returns the providers that currently have a stored token, with
// expiry information only.
func (m *TokenManager) List() map[string]time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]time.Time, len(m.tokens))
	for name, token := range m.tokens {
		out[name] = token.ExpiresAt
	}
	return out
}

// EnsureFresh returns a token for the provider that is valid for at least
// the refresh window, refreshing via the provider gateway when needed.
// Missing tokens and failed refreshes both surface as ErrAuthRequired.
func (m *TokenManager) EnsureFresh(ctx context.Context, providerName string) (*Token, error) {
	name := provider.Normalize(providerName)

	m.mu.RLock()
	token, ok := m.tokens[name]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrAuthRequired
	}

	if token.ExpiresAt.IsZero() || time.Until(token.ExpiresAt) > refreshWindow {
		return token, nil
	}

	gateway, err := m.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	result, err := gateway.Refresh(ctx, token.RefreshToken)
	if err != nil {
		logger.Log.Warnw("token refresh failed", "provider", name, "error", err)
		return nil, apperr.ErrAuthRequired
	}

	fresh := &Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	}
	if err := m.Store(name, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (m *TokenManager) encrypt(providerName string, token *Token) (*authdomain.Credential, error) {
	access, err := crypto.Encrypt(token.AccessToken, m.secretKey)
	if err != nil {
		return nil, err
	}
	refresh := ""
	if token.RefreshToken != "" {
		refresh, err = crypto.Encrypt(token.RefreshToken, m.secretKey)
		if err != nil {
			return nil, err
		}
	}
	now := time.Now()
	return &authdomain.Credential{
		Provider:     providerName,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    token.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (m *TokenManager) decrypt(cred *authdomain.Credential) (*Token, error) {
	access, err := crypto.Decrypt(cred.AccessToken, m.secretKey)
	if err != nil {
		return nil, err
	}
	refresh := ""
	if cred.RefreshToken != "" {
		refresh, err = crypto.Decrypt(cred.RefreshToken, m.secretKey)
		if err != nil {
			return nil, err
		}
	}
	return &Token{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    cred.ExpiresAt,
	}, nil
}
