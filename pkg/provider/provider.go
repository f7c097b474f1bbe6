package provider

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
)

// AuthResult is the token material returned by an OAuth exchange or refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// EmailProvider is a gateway to one email backend.
type EmailProvider interface {
	Name() string
	AuthorizationURL() (string, error)
	Authenticate(ctx context.Context, authCode string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	ListMessages(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]*domain.EmailMessage, error)
}

// Registry resolves provider names to gateways.
type Registry struct {
	providers map[string]EmailProvider
}

func NewRegistry(providers ...EmailProvider) *Registry {
	r := &Registry{providers: make(map[string]EmailProvider)}
	for _, p := range providers {
		r.providers[strings.ToLower(p.Name())] = p
	}
	return r
}

// Normalize canonicalizes a provider name, tolerating the quote and brace
// noise some OAuth consoles append to the state parameter.
func Normalize(name string) string {
	return strings.ToLower(strings.Trim(name, "\"' {}"))
}

// Resolve returns the gateway for a provider name.
func (r *Registry) Resolve(name string) (EmailProvider, error) {
	p, ok := r.providers[Normalize(name)]
	if !ok {
		return nil, apperr.ErrUnknownProvider
	}
	return p, nil
}

// truncatePreview cuts s to at most max bytes without splitting a rune,
// appending an ellipsis when anything was removed.
func truncatePreview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
