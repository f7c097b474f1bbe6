package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
)

const (
	graphBaseURL      = "https://graph.microsoft.com/v1.0"
	outlookMaxResults = 50
)

type OutlookProvider struct {
	config *oauth2.Config
	client *http.Client
}

func NewOutlookProvider(clientID, clientSecret, tenant, redirectURI string) *OutlookProvider {
	if tenant == "" {
		tenant = "common"
	}
	return &OutlookProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"offline_access", "Mail.Read", "User.Read"},
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *OutlookProvider) Name() string {
	return "outlook"
}

func (p *OutlookProvider) AuthorizationURL() (string, error) {
	if p.config.ClientID == "" || p.config.ClientSecret == "" {
		return "", apperr.ErrAuthRequired
	}
	return p.config.AuthCodeURL("outlook"), nil
}

func (p *OutlookProvider) Authenticate(ctx context.Context, authCode string) (*AuthResult, error) {
	token, err := p.config.Exchange(ctx, authCode)
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "outlook", Op: "exchange", Err: err}
	}
	return &AuthResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

func (p *OutlookProvider) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.ErrAuthRequired
	}
	src := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "outlook", Op: "refresh", Err: err}
	}
	result := &AuthResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if result.RefreshToken == "" {
		result.RefreshToken = refreshToken
	}
	return result, nil
}

type graphMessage struct {
	ID               string `json:"id"`
	Subject          string `json:"subject"`
	BodyPreview      string `json:"bodyPreview"`
	ReceivedDateTime string `json:"receivedDateTime"`
	From             struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
}

// ListMessages fetches messages received inside [startDate, endDate] via the
// Microsoft Graph messages endpoint.
func (p *OutlookProvider) ListMessages(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]*domain.EmailMessage, error) {
	filter := fmt.Sprintf("receivedDateTime ge %s and receivedDateTime le %s",
		startDate.UTC().Format("2006-01-02T15:04:05Z"),
		endDate.UTC().Format("2006-01-02T15:04:05Z"))

	params := url.Values{}
	params.Set("$filter", filter)
	params.Set("$top", fmt.Sprintf("%d", outlookMaxResults))
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$select", "id,subject,from,receivedDateTime,bodyPreview")

	req, err := http.NewRequestWithContext(ctx, "GET", graphBaseURL+"/me/messages?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "outlook", Op: "list", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "outlook", Op: "list", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperr.ErrAuthRequired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.ProviderAPIError{
			Provider: "outlook",
			Op:       "list",
			Err:      fmt.Errorf("graph API error (%d): %s", resp.StatusCode, string(body)),
		}
	}

	var payload struct {
		Value []graphMessage `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "outlook", Op: "list", Err: err}
	}

	messages := make([]*domain.EmailMessage, 0, len(payload.Value))
	for _, m := range payload.Value {
		received, _ := time.Parse(time.RFC3339, m.ReceivedDateTime)

		from := m.From.EmailAddress.Address
		if m.From.EmailAddress.Name != "" {
			from = fmt.Sprintf("%s <%s>", m.From.EmailAddress.Name, m.From.EmailAddress.Address)
		}

		preview := truncatePreview(strings.Join(strings.Fields(m.BodyPreview), " "), 200)

		messages = append(messages, &domain.EmailMessage{
			ID:           m.ID,
			Subject:      m.Subject,
			From:         from,
			ReceivedDate: received,
			Preview:      preview,
			Source:       "outlook",
		})
	}

	return messages, nil
}
