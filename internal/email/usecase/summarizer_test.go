package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
)

func TestChunkMessagesTotality(t *testing.T) {
	cases := []struct {
		messages int
		size     int
		batches  int
	}{
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{30, 10, 3},
		{7, 3, 3},
	}

	for _, tc := range cases {
		messages := makeMessages(tc.messages)
		batches := chunkMessages(messages, tc.size)
		require.Len(t, batches, tc.batches, "%d messages / size %d", tc.messages, tc.size)

		// Every message lands in exactly one batch, in order
		seen := 0
		for _, batch := range batches {
			require.LessOrEqual(t, len(batch), tc.size)
			for _, msg := range batch {
				require.Equal(t, messages[seen].ID, msg.ID)
				seen++
			}
		}
		require.Equal(t, tc.messages, seen)
	}
}

func TestSummarizeEmptyCorpus(t *testing.T) {
	s := NewSummarizer(&fakeTextService{}, 10)

	_, _, err := s.Summarize(context.Background(), nil)
	require.ErrorIs(t, err, apperr.ErrEmptyCorpus)
}

func TestSummarizeSingleBatchSkipsSynthesis(t *testing.T) {
	svc := &fakeTextService{
		summarizeFn: func(text string) (string, error) { return "only batch summary", nil },
	}
	s := NewSummarizer(svc, 10)

	summaries, final, err := s.Summarize(context.Background(), makeMessages(8))
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "only batch summary", final)
	require.Equal(t, 1, svc.summarizeCalls)
	require.Zero(t, svc.completeCalls, "single batch must not trigger a synthesis call")
}

func TestSummarizeMultiBatch(t *testing.T) {
	svc := &fakeTextService{}
	s := NewSummarizer(svc, 10)

	summaries, final, err := s.Summarize(context.Background(), makeMessages(25))
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	require.Equal(t, "final synthesis", final)
	require.Equal(t, 3, svc.summarizeCalls)
	require.Equal(t, 1, svc.completeCalls)

	// Batch numbering is positional and counts are exhaustive
	total := 0
	for i, summary := range summaries {
		require.Equal(t, i+1, summary.BatchNumber)
		require.Len(t, summary.EmailIDs, summary.EmailCount)
		total += summary.EmailCount
	}
	require.Equal(t, 25, total)
}

func TestSummarizeBatchFailureAborts(t *testing.T) {
	svc := &fakeTextService{
		summarizeFn: func(text string) (string, error) { return "", errors.New("rate limited") },
	}
	s := NewSummarizer(svc, 10)

	_, _, err := s.Summarize(context.Background(), makeMessages(25))
	require.Error(t, err)

	var genErr *apperr.GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestRenderBatchFormat(t *testing.T) {
	messages := makeMessages(2)
	rendered := renderBatch(messages)

	require.Contains(t, rendered, "Subject: Subject 0")
	require.Contains(t, rendered, "From: sender@example.com")
	require.Contains(t, rendered, "Date: 2025-06-01 09:00")
	require.Contains(t, rendered, "Preview: preview text 1")
}

func TestSummarizeEmbedFailureAborts(t *testing.T) {
	svc := &fakeTextService{
		embedFn: func(text string) ([]float32, error) { return nil, errors.New("backend down") },
	}
	s := NewSummarizer(svc, 10)

	summaries, final, err := s.Summarize(context.Background(), makeMessages(25))
	require.Error(t, err)
	require.Nil(t, summaries)
	require.Empty(t, final)

	var genErr *apperr.GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Zero(t, svc.completeCalls, "a failed map step must not reach the reduce step")
}

func TestSummarizeEmbedsBatchSummaries(t *testing.T) {
	svc := &fakeTextService{
		embedFn: func(text string) ([]float32, error) { return []float32{0.5, 0.5}, nil },
	}
	s := NewSummarizer(svc, 10)

	summaries, _, err := s.Summarize(context.Background(), makeMessages(12))
	require.NoError(t, err)
	for _, summary := range summaries {
		require.Equal(t, domain.FloatVector{0.5, 0.5}, summary.Embedding)
	}
}
