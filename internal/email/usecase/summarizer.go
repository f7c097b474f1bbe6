package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/pkg/ai"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
	"github.com/Floressek/MailAnalyzer/pkg/logger"
)

const defaultBatchSize = 10

// summarizeConcurrency caps how many batch summaries run against the AI
// backend at once.
const summarizeConcurrency = 4

// Summarizer runs the map-reduce corpus summarization: split messages into
// fixed-size batches, summarize each batch, then synthesize a final summary
// from the batch summaries.
type Summarizer struct {
	textService ai.TextService
	batchSize   int
}

func NewSummarizer(textService ai.TextService, batchSize int) *Summarizer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Summarizer{textService: textService, batchSize: batchSize}
}

// Summarize produces the per-batch summaries and the final summary for a
// set of messages. With a single batch, its summary is the final summary
// and no synthesis call is made.
func (s *Summarizer) Summarize(ctx context.Context, messages []*domain.EmailMessage) ([]domain.BatchSummary, string, error) {
	if len(messages) == 0 {
		return nil, "", apperr.ErrEmptyCorpus
	}

	batches := chunkMessages(messages, s.batchSize)
	logger.Log.Infow("summarizing corpus", "messages", len(messages), "batches", len(batches))

	summaries, err := s.mapBatches(ctx, batches)
	if err != nil {
		return nil, "", err
	}

	if len(summaries) == 1 {
		return summaries, summaries[0].Summary, nil
	}

	final, err := s.reduce(ctx, summaries)
	if err != nil {
		return nil, "", err
	}
	return summaries, final, nil
}

func (s *Summarizer) mapBatches(ctx context.Context, batches [][]*domain.EmailMessage) ([]domain.BatchSummary, error) {
	summaries := make([]domain.BatchSummary, len(batches))
	errs := make([]error, len(batches))

	semaphore := make(chan struct{}, summarizeConcurrency)
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func(idx int, batch []*domain.EmailMessage) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			summary, err := s.textService.Summarize(ctx, renderBatch(batch))
			if err != nil {
				errs[idx] = &apperr.GenerationError{Op: fmt.Sprintf("summarize batch %d", idx+1), Err: err}
				return
			}

			ids := make([]string, len(batch))
			for j, msg := range batch {
				ids[j] = msg.ID
			}
			summaries[idx] = domain.BatchSummary{
				BatchNumber: idx + 1,
				EmailCount:  len(batch),
				EmailIDs:    ids,
				Summary:     summary,
			}

			embedding, err := s.textService.Embed(ctx, summary)
			if err != nil {
				errs[idx] = &apperr.GenerationError{Op: fmt.Sprintf("embed batch %d summary", idx+1), Err: err}
				return
			}
			summaries[idx].Embedding = embedding
		}(i, batch)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

func (s *Summarizer) reduce(ctx context.Context, summaries []domain.BatchSummary) (string, error) {
	var sb strings.Builder
	sb.WriteString("The following are summaries of batches of emails. ")
	sb.WriteString("Synthesize them into one comprehensive summary that captures the overall themes, patterns, and key information:\n\n")
	for _, summary := range summaries {
		sb.WriteString(fmt.Sprintf("Batch %d (%d emails):\n%s\n\n", summary.BatchNumber, summary.EmailCount, summary.Summary))
	}

	final, err := s.textService.Complete(ctx, sb.String())
	if err != nil {
		return "", &apperr.GenerationError{Op: "synthesize final summary", Err: err}
	}
	return final, nil
}

// chunkMessages splits messages into consecutive batches of at most size,
// preserving order. Every message lands in exactly one batch.
func chunkMessages(messages []*domain.EmailMessage, size int) [][]*domain.EmailMessage {
	batches := make([][]*domain.EmailMessage, 0, (len(messages)+size-1)/size)
	for start := 0; start < len(messages); start += size {
		end := start + size
		if end > len(messages) {
			end = len(messages)
		}
		batches = append(batches, messages[start:end])
	}
	return batches
}

// renderBatch produces the canonical text representation of a batch fed to
// the summarization backend.
func renderBatch(batch []*domain.EmailMessage) string {
	var sb strings.Builder
	for _, msg := range batch {
		sb.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
		sb.WriteString(fmt.Sprintf("From: %s\n", msg.From))
		sb.WriteString(fmt.Sprintf("Date: %s\n", msg.ReceivedDate.Format("2006-01-02 15:04")))
		sb.WriteString(fmt.Sprintf("Preview: %s\n\n", msg.Preview))
	}
	return sb.String()
}
