package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
)

// fakeTextService is a scriptable TextService that counts calls.
type fakeTextService struct {
	mu             sync.Mutex
	summarizeCalls int
	embedCalls     int
	completeCalls  int

	summarizeFn func(text string) (string, error)
	embedFn     func(text string) ([]float32, error)
	completeFn  func(prompt string) (string, error)
}

func (f *fakeTextService) Summarize(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.summarizeCalls++
	n := f.summarizeCalls
	f.mu.Unlock()
	if f.summarizeFn != nil {
		return f.summarizeFn(text)
	}
	return fmt.Sprintf("summary %d", n), nil
}

func (f *fakeTextService) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.mu.Unlock()
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeTextService) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.completeCalls++
	f.mu.Unlock()
	if f.completeFn != nil {
		return f.completeFn(prompt)
	}
	return "final synthesis", nil
}

// fakeDocumentRepo is an in-memory DocumentRepository keyed by
// provider and email id.
type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[string]*domain.EmailDocument

	upsertErr error
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[string]*domain.EmailDocument)}
}

func (r *fakeDocumentRepo) key(provider, emailID string) string {
	return provider + "/" + emailID
}

func (r *fakeDocumentRepo) Upsert(doc *domain.EmailDocument) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[r.key(doc.Provider, doc.EmailID)] = doc
	return nil
}

func (r *fakeDocumentRepo) Query(provider string, startDate, endDate *time.Time) ([]*domain.EmailDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.EmailDocument
	for _, doc := range r.docs {
		if provider != "" && doc.Provider != provider {
			continue
		}
		if startDate != nil && doc.ReceivedDate.Before(*startDate) {
			continue
		}
		if endDate != nil && doc.ReceivedDate.After(*endDate) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *fakeDocumentRepo) QueryAll() ([]*domain.EmailDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.EmailDocument, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (r *fakeDocumentRepo) DeleteExpired(olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, doc := range r.docs {
		if doc.FetchedAt.Before(olderThan) {
			delete(r.docs, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeDocumentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func makeMessages(n int) []*domain.EmailMessage {
	messages := make([]*domain.EmailMessage, n)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := range messages {
		messages[i] = &domain.EmailMessage{
			ID:           fmt.Sprintf("msg-%d", i),
			Subject:      fmt.Sprintf("Subject %d", i),
			From:         "sender@example.com",
			ReceivedDate: base.Add(time.Duration(i) * time.Minute),
			Preview:      fmt.Sprintf("preview text %d", i),
			Source:       "gmail",
		}
	}
	return messages
}
