package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
	"github.com/Floressek/MailAnalyzer/pkg/logger"
)

const gmailMaxResults = 50

type GmailProvider struct {
	config *oauth2.Config
}

func NewGmailProvider(clientID, clientSecret, redirectURI string) *GmailProvider {
	return &GmailProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{gmail.GmailReadonlyScope},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GmailProvider) Name() string {
	return "gmail"
}

func (p *GmailProvider) AuthorizationURL() (string, error) {
	if p.config.ClientID == "" || p.config.ClientSecret == "" {
		return "", apperr.ErrAuthRequired
	}
	return p.config.AuthCodeURL("gmail", oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (p *GmailProvider) Authenticate(ctx context.Context, authCode string) (*AuthResult, error) {
	token, err := p.config.Exchange(ctx, authCode)
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "gmail", Op: "exchange", Err: err}
	}
	return &AuthResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

func (p *GmailProvider) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.ErrAuthRequired
	}
	src := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "gmail", Op: "refresh", Err: err}
	}
	result := &AuthResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	// Google only returns a refresh token on the initial exchange.
	if result.RefreshToken == "" {
		result.RefreshToken = refreshToken
	}
	return result, nil
}

// ListMessages fetches messages received inside [startDate, endDate].
func (p *GmailProvider) ListMessages(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]*domain.EmailMessage, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "gmail", Op: "connect", Err: err}
	}

	// Gmail date operators are exclusive, widen the window by a day on each side.
	q := fmt.Sprintf("after:%s before:%s",
		startDate.AddDate(0, 0, -1).Format("2006/01/02"),
		endDate.AddDate(0, 0, 1).Format("2006/01/02"))

	user := "me"
	listResp, err := srv.Users.Messages.List(user).Q(q).MaxResults(gmailMaxResults).Do()
	if err != nil {
		return nil, &apperr.ProviderAPIError{Provider: "gmail", Op: "list", Err: err}
	}

	results := make(chan fetchResult, len(listResp.Messages))
	semaphore := make(chan struct{}, 10)

	for _, ref := range listResp.Messages {
		go func(msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			full, err := srv.Users.Messages.Get(user, msgID).Format("full").Do()
			if err != nil {
				results <- fetchResult{nil, err}
				return
			}
			results <- fetchResult{convertGmailMessage(full), nil}
		}(ref.Id)
	}

	messages, err := collectFetchResults(len(listResp.Messages), results)
	if err != nil {
		return nil, err
	}

	// Parallel fetching returns messages in arbitrary order.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ReceivedDate.After(messages[j].ReceivedDate)
	})

	return messages, nil
}

type fetchResult struct {
	msg *domain.EmailMessage
	err error
}

// collectFetchResults drains total results, keeping the successful subset.
// When every fetch failed the caller gets an error, not an empty list
// indistinguishable from an empty mailbox.
func collectFetchResults(total int, results <-chan fetchResult) ([]*domain.EmailMessage, error) {
	messages := make([]*domain.EmailMessage, 0, total)
	var lastErr error
	for i := 0; i < total; i++ {
		r := <-results
		if r.err != nil {
			logger.Log.Warnw("failed to fetch message", "provider", "gmail", "error", r.err)
			lastErr = r.err
			continue
		}
		if r.msg != nil {
			messages = append(messages, r.msg)
		}
	}

	if total > 0 && len(messages) == 0 && lastErr != nil {
		return nil, &apperr.ProviderAPIError{Provider: "gmail", Op: "get", Err: lastErr}
	}
	return messages, nil
}

func convertGmailMessage(msg *gmail.Message) *domain.EmailMessage {
	body, isHTML := gmailBody(msg.Payload)
	preview := body
	if isHTML {
		preview = stripHTML(preview)
	}
	preview = truncatePreview(strings.Join(strings.Fields(preview), " "), 200)

	return &domain.EmailMessage{
		ID:           msg.Id,
		Subject:      gmailHeader(msg.Payload.Headers, "Subject"),
		From:         gmailHeader(msg.Payload.Headers, "From"),
		ReceivedDate: time.Unix(msg.InternalDate/1000, 0),
		Preview:      preview,
		Source:       "gmail",
	}
}

func gmailHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

func gmailBody(payload *gmail.MessagePart) (string, bool) {
	if payload == nil {
		return "", false
	}
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data), payload.MimeType == "text/html"
		}
	}

	var htmlBody, plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err == nil {
					switch part.MimeType {
					case "text/html":
						htmlBody = string(data)
					case "text/plain":
						plainBody = string(data)
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody, false
	}
	return htmlBody, htmlBody != ""
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return s
}
