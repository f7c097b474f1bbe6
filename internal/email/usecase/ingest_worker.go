package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/internal/email/repository"
	"github.com/Floressek/MailAnalyzer/pkg/ai"
	"github.com/Floressek/MailAnalyzer/pkg/logger"
	"github.com/Floressek/MailAnalyzer/pkg/metrics"
)

// embedTimeout bounds a single embedding call; jobs run detached from the
// request that queued them.
const embedTimeout = 30 * time.Second

// IngestJob carries one fetched message through the ingest pipeline.
type IngestJob struct {
	Provider string
	Message  *domain.EmailMessage
}

// IngestWorkerService embeds and persists fetched messages in the
// background. Failures are logged and counted, never surfaced to the fetch
// request that queued the job.
type IngestWorkerService struct {
	documentRepo repository.DocumentRepository
	textService  ai.TextService
	jobQueue     chan IngestJob
	workerWg     sync.WaitGroup
	workerCount  int
	started      bool
	mu           sync.Mutex
}

func NewIngestWorkerService(documentRepo repository.DocumentRepository, textService ai.TextService, workerCount, queueSize int) *IngestWorkerService {
	if workerCount <= 0 {
		workerCount = 3
	}
	if queueSize <= 0 {
		queueSize = 500
	}

	return &IngestWorkerService{
		documentRepo: documentRepo,
		textService:  textService,
		jobQueue:     make(chan IngestJob, queueSize),
		workerCount:  workerCount,
	}
}

// Start launches the worker goroutines.
func (s *IngestWorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	logger.Log.Infow("ingest workers started", "count", s.workerCount)
}

// Stop drains the queue and waits for all workers to finish.
func (s *IngestWorkerService) Stop() {
	close(s.jobQueue)
	s.workerWg.Wait()
	logger.Log.Infow("ingest workers stopped")
}

// QueueJob enqueues a job without blocking. Returns false when the queue is
// full and the job was dropped.
func (s *IngestWorkerService) QueueJob(job IngestJob) bool {
	select {
	case s.jobQueue <- job:
		return true
	default:
		metrics.IngestJobsDropped.Inc()
		logger.Log.Warnw("ingest queue full, dropping job", "provider", job.Provider, "emailId", job.Message.ID)
		return false
	}
}

// QueueMessages enqueues a set of fetched messages and returns how many
// were accepted.
func (s *IngestWorkerService) QueueMessages(providerName string, messages []*domain.EmailMessage) int {
	queued := 0
	for _, msg := range messages {
		if s.QueueJob(IngestJob{Provider: providerName, Message: msg}) {
			queued++
		}
	}
	return queued
}

func (s *IngestWorkerService) worker(id int) {
	defer s.workerWg.Done()

	for job := range s.jobQueue {
		s.processJob(job)
	}

	logger.Log.Debugw("ingest worker stopped", "worker", id)
}

func (s *IngestWorkerService) processJob(job IngestJob) {
	msg := job.Message

	content := fmt.Sprintf("Subject: %s\nFrom: %s\nDate: %s\nPreview: %s",
		msg.Subject, msg.From, msg.ReceivedDate.Format("2006-01-02 15:04"), msg.Preview)

	ctx, cancel := context.WithTimeout(context.Background(), embedTimeout)
	defer cancel()

	embedding, err := s.textService.Embed(ctx, content)
	if err != nil {
		// Skip the save: upserting without a vector would overwrite a
		// previously stored embedding for the same message.
		logger.Log.Warnw("embedding failed, skipping document", "provider", job.Provider, "emailId", msg.ID, "error", err)
		metrics.IngestJobsProcessed.WithLabelValues(job.Provider, "embed_failed").Inc()
		return
	}

	doc := &domain.EmailDocument{
		ID:           uuid.New().String(),
		Provider:     job.Provider,
		EmailID:      msg.ID,
		Subject:      msg.Subject,
		From:         msg.From,
		Content:      content,
		ReceivedDate: msg.ReceivedDate,
		FetchedAt:    time.Now(),
		Embedding:    embedding,
	}

	if err := s.documentRepo.Upsert(doc); err != nil {
		logger.Log.Errorw("failed to persist document", "provider", job.Provider, "emailId", msg.ID, "error", err)
		metrics.IngestJobsProcessed.WithLabelValues(job.Provider, "persist_failed").Inc()
		return
	}

	metrics.IngestJobsProcessed.WithLabelValues(job.Provider, "success").Inc()
}
