package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
)

func TestCollectFetchResultsAllFailed(t *testing.T) {
	results := make(chan fetchResult, 3)
	for i := 0; i < 3; i++ {
		results <- fetchResult{err: errors.New("rate limited")}
	}

	_, err := collectFetchResults(3, results)
	require.Error(t, err)

	var apiErr *apperr.ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "gmail", apiErr.Provider)
}

func TestCollectFetchResultsPartialFailure(t *testing.T) {
	results := make(chan fetchResult, 3)
	results <- fetchResult{err: errors.New("rate limited")}
	results <- fetchResult{msg: &domain.EmailMessage{ID: "a", ReceivedDate: time.Now()}}
	results <- fetchResult{msg: &domain.EmailMessage{ID: "b", ReceivedDate: time.Now()}}

	messages, err := collectFetchResults(3, results)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}

func TestCollectFetchResultsEmptyMailbox(t *testing.T) {
	results := make(chan fetchResult)

	messages, err := collectFetchResults(0, results)
	require.NoError(t, err)
	require.Empty(t, messages)
}
