package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
)

func TestIngestPersistsWithEmbedding(t *testing.T) {
	repo := newFakeDocumentRepo()
	svc := &fakeTextService{
		embedFn: func(text string) ([]float32, error) { return []float32{0.1, 0.2}, nil },
	}

	w := NewIngestWorkerService(repo, svc, 2, 10)
	w.Start()

	queued := w.QueueMessages("gmail", makeMessages(5))
	require.Equal(t, 5, queued)
	w.Stop()

	require.Equal(t, 5, repo.count())
	docs, err := repo.Query("gmail", nil, nil)
	require.NoError(t, err)
	for _, doc := range docs {
		require.Equal(t, domain.FloatVector{0.1, 0.2}, doc.Embedding)
		require.Contains(t, doc.Content, "Subject: ")
		require.False(t, doc.FetchedAt.IsZero())
	}
}

func TestIngestIdempotentUpsert(t *testing.T) {
	repo := newFakeDocumentRepo()
	w := NewIngestWorkerService(repo, &fakeTextService{}, 2, 20)
	w.Start()

	messages := makeMessages(4)
	w.QueueMessages("gmail", messages)
	w.QueueMessages("gmail", messages)
	w.Stop()

	require.Equal(t, 4, repo.count(), "re-ingesting the same messages must not duplicate documents")
}

func TestIngestEmbedFailureSkipsPersist(t *testing.T) {
	repo := newFakeDocumentRepo()
	svc := &fakeTextService{
		embedFn: func(text string) ([]float32, error) { return nil, errors.New("backend down") },
	}

	w := NewIngestWorkerService(repo, svc, 1, 10)
	w.Start()
	w.QueueMessages("gmail", makeMessages(3))
	w.Stop()

	require.Zero(t, repo.count(), "documents without a vector must not be stored")
}

func TestReingestDuringEmbedOutageKeepsStoredEmbeddings(t *testing.T) {
	repo := newFakeDocumentRepo()
	messages := makeMessages(3)

	good := &fakeTextService{
		embedFn: func(text string) ([]float32, error) { return []float32{0.7, 0.3}, nil },
	}
	w := NewIngestWorkerService(repo, good, 1, 10)
	w.Start()
	w.QueueMessages("gmail", messages)
	w.Stop()
	require.Equal(t, 3, repo.count())

	// Same range re-fetched while the embedding backend is down
	broken := &fakeTextService{
		embedFn: func(text string) ([]float32, error) { return nil, errors.New("backend down") },
	}
	w2 := NewIngestWorkerService(repo, broken, 1, 10)
	w2.Start()
	w2.QueueMessages("gmail", messages)
	w2.Stop()

	require.Equal(t, 3, repo.count())
	docs, err := repo.Query("gmail", nil, nil)
	require.NoError(t, err)
	for _, doc := range docs {
		require.Equal(t, domain.FloatVector{0.7, 0.3}, doc.Embedding, "outage re-ingest must not clobber stored vectors")
	}
}

func TestIngestPersistFailureDoesNotPropagate(t *testing.T) {
	repo := newFakeDocumentRepo()
	repo.upsertErr = errors.New("disk full")

	w := NewIngestWorkerService(repo, &fakeTextService{}, 1, 10)
	w.Start()

	queued := w.QueueMessages("gmail", makeMessages(2))
	require.Equal(t, 2, queued, "queueing succeeds even when processing will fail")
	w.Stop()

	require.Zero(t, repo.count())
}

func TestQueueFullDropsJobs(t *testing.T) {
	repo := newFakeDocumentRepo()
	w := NewIngestWorkerService(repo, &fakeTextService{}, 1, 2)
	// Workers not started, so the queue fills up

	messages := makeMessages(5)
	queued := w.QueueMessages("gmail", messages)
	require.Equal(t, 2, queued)

	ok := w.QueueJob(IngestJob{Provider: "gmail", Message: messages[0]})
	require.False(t, ok)
}

func TestProvidersKeptSeparate(t *testing.T) {
	repo := newFakeDocumentRepo()
	w := NewIngestWorkerService(repo, &fakeTextService{}, 2, 20)
	w.Start()

	w.QueueMessages("gmail", makeMessages(2))
	w.QueueMessages("outlook", makeMessages(2))
	w.Stop()

	require.Equal(t, 4, repo.count(), "same email ids under different providers are distinct documents")

	gmailDocs, err := repo.Query("gmail", nil, nil)
	require.NoError(t, err)
	require.Len(t, gmailDocs, 2)

	start := time.Now().Add(time.Hour)
	future, err := repo.Query("gmail", &start, nil)
	require.NoError(t, err)
	require.Empty(t, future)
}
