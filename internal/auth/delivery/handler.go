package delivery

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	authdto "github.com/Floressek/MailAnalyzer/internal/auth/dto"
	"github.com/Floressek/MailAnalyzer/internal/auth/usecase"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
	"github.com/Floressek/MailAnalyzer/pkg/provider"
)

type AuthHandler struct {
	registry     *provider.Registry
	tokenManager *usecase.TokenManager
}

func NewAuthHandler(registry *provider.Registry, tokenManager *usecase.TokenManager) *AuthHandler {
	return &AuthHandler{
		registry:     registry,
		tokenManager: tokenManager,
	}
}

// GetAuthURL returns the OAuth consent URL for a provider.
func (h *AuthHandler) GetAuthURL(c *gin.Context) {
	name := c.Param("provider")

	gateway, err := h.registry.Resolve(name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	url, err := gateway.AuthorizationURL()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, authdto.AuthURLResponse{Provider: gateway.Name(), URL: url})
}

// Authenticate exchanges an authorization code and stores the resulting
// tokens.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req authdto.AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authenticate(c, req.Provider, req.AuthCode); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "authenticated", "provider": provider.Normalize(req.Provider)})
}

// Callback handles the OAuth redirect. The state parameter carries the
// provider name, sometimes wrapped in quote or brace noise.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(callbackHTML("Authentication failed", "no authorization code received")))
		return
	}

	if err := h.authenticate(c, state, code); err != nil {
		c.Data(statusFor(err), "text/html; charset=utf-8", []byte(callbackHTML("Authentication failed", err.Error())))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackHTML("Authentication successful", "You can close this window now.")))
}

func (h *AuthHandler) authenticate(c *gin.Context, providerName, code string) error {
	gateway, err := h.registry.Resolve(providerName)
	if err != nil {
		return err
	}

	result, err := gateway.Authenticate(c.Request.Context(), code)
	if err != nil {
		return err
	}

	return h.tokenManager.Store(gateway.Name(), &usecase.Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	})
}

// TestConnection verifies a provider has a usable token, refreshing it if
// necessary.
func (h *AuthHandler) TestConnection(c *gin.Context) {
	name := c.Param("provider")

	token, err := h.tokenManager.EnsureFresh(c.Request.Context(), name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "connected": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected": true,
		"provider":  provider.Normalize(name),
		"expiresAt": token.ExpiresAt,
	})
}

// ListTokens returns the providers with stored credentials. Token material
// is never included.
func (h *AuthHandler) ListTokens(c *gin.Context) {
	stored := h.tokenManager.List()

	statuses := make([]authdto.TokenStatus, 0, len(stored))
	for name, expiresAt := range stored {
		statuses = append(statuses, authdto.TokenStatus{
			Provider:  name,
			ExpiresAt: expiresAt,
			Expired:   !expiresAt.IsZero() && expiresAt.Before(time.Now()),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Provider < statuses[j].Provider })

	c.JSON(http.StatusOK, gin.H{"tokens": statuses})
}

// RemoveToken deletes the stored credential for a provider.
func (h *AuthHandler) RemoveToken(c *gin.Context) {
	name := c.Param("provider")

	if _, err := h.registry.Resolve(name); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.tokenManager.Remove(name); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token removed", "provider": provider.Normalize(name)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrAuthRequired), errors.Is(err, apperr.ErrTokenNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrUnknownProvider):
		return http.StatusBadRequest
	case apperr.IsClientFault(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func callbackHTML(title, detail string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h2>%s</h2>
<p>%s</p>
</body>
</html>`, title, title, detail)
}
