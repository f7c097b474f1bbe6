package delivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	emaildto "github.com/Floressek/MailAnalyzer/internal/email/dto"
	"github.com/Floressek/MailAnalyzer/internal/email/usecase"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
)

const dateLayout = "2006-01-02"

type EmailHandler struct {
	emailUsecase  usecase.EmailUsecase
	searchService *usecase.SearchService
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase, searchService *usecase.SearchService) *EmailHandler {
	return &EmailHandler{
		emailUsecase:  emailUsecase,
		searchService: searchService,
	}
}

// FetchEmails pulls messages from a provider for a date range.
func (h *EmailHandler) FetchEmails(c *gin.Context) {
	providerName := c.Param("provider")

	startDate, endDate, err := parseDateRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.emailUsecase.FetchMessages(c.Request.Context(), providerName, startDate, endDate)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.FetchResponse{
		Provider: providerName,
		Count:    len(messages),
		Messages: messages,
	})
}

// Analyze runs the corpus summarization over a date range.
func (h *EmailHandler) Analyze(c *gin.Context) {
	var req emaildto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.emailUsecase.Analyze(c.Request.Context(), req.Provider, startDate, endDate)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAnalyses lists stored analyses for a provider.
func (h *EmailHandler) GetAnalyses(c *gin.Context) {
	providerName := c.Param("provider")

	startDate, endDate, err := parseOptionalRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.emailUsecase.GetAnalyses(providerName, startDate, endDate)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"provider": providerName, "analyses": results})
}

// Search runs a semantic search over the stored corpus.
func (h *EmailHandler) Search(c *gin.Context) {
	var req emaildto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, endDate, err := parseOptionalRange(req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.searchService.Search(c.Request.Context(), req.Query, req.Provider, startDate, endDate, req.Limit)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseDate accepts RFC 3339 or plain YYYY-MM-DD.
func parseDate(field, value string) (time.Time, bool, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, false, nil
	}
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed, true, nil
	}
	return time.Time{}, false, apperr.NewValidation(field, "expected YYYY-MM-DD or RFC 3339")
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, apperr.NewValidation("dateRange", "startDate and endDate are required")
	}

	startDate, _, err := parseDate("startDate", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, dateOnly, err := parseDate("endDate", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, apperr.NewValidation("dateRange", "endDate must not be before startDate")
	}

	// A date-only end bound means the whole end day.
	if dateOnly {
		endDate = endDate.Add(24*time.Hour - time.Second)
	}
	return startDate, endDate, nil
}

func parseOptionalRange(startStr, endStr string) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time
	if startStr != "" {
		parsed, _, err := parseDate("startDate", startStr)
		if err != nil {
			return nil, nil, err
		}
		startDate = &parsed
	}
	if endStr != "" {
		parsed, dateOnly, err := parseDate("endDate", endStr)
		if err != nil {
			return nil, nil, err
		}
		if dateOnly {
			parsed = parsed.Add(24*time.Hour - time.Second)
		}
		endDate = &parsed
	}
	return startDate, endDate, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrAuthRequired), errors.Is(err, apperr.ErrTokenNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrEmptyCorpus):
		return http.StatusNotFound
	case apperr.IsClientFault(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
