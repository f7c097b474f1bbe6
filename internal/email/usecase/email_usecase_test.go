package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authdomain "github.com/Floressek/MailAnalyzer/internal/auth/domain"
	authusecase "github.com/Floressek/MailAnalyzer/internal/auth/usecase"
	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
	"github.com/Floressek/MailAnalyzer/pkg/provider"
)

type memCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]*authdomain.Credential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{creds: make(map[string]*authdomain.Credential)}
}

func (r *memCredentialRepo) Upsert(cred *authdomain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[cred.Provider] = cred
	return nil
}

func (r *memCredentialRepo) GetByProvider(provider string) (*authdomain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creds[provider], nil
}

func (r *memCredentialRepo) Delete(provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.creds, provider)
	return nil
}

func (r *memCredentialRepo) List() ([]*authdomain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*authdomain.Credential, 0, len(r.creds))
	for _, cred := range r.creds {
		out = append(out, cred)
	}
	return out, nil
}

type memAnalysisRepo struct {
	mu      sync.Mutex
	results []*domain.AnalysisResult
}

func (r *memAnalysisRepo) Insert(result *domain.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *memAnalysisRepo) Query(provider string, startDate, endDate *time.Time) ([]*domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AnalysisResult
	for _, result := range r.results {
		if result.Provider != provider {
			continue
		}
		if startDate != nil && result.EndDate.Before(*startDate) {
			continue
		}
		if endDate != nil && result.StartDate.After(*endDate) {
			continue
		}
		out = append(out, result)
	}
	return out, nil
}

type listingProvider struct {
	name     string
	messages []*domain.EmailMessage
	listErr  error
}

func (p *listingProvider) Name() string                      { return p.name }
func (p *listingProvider) AuthorizationURL() (string, error) { return "https://example.com", nil }

func (p *listingProvider) Authenticate(ctx context.Context, code string) (*provider.AuthResult, error) {
	return &provider.AuthResult{AccessToken: "at", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *listingProvider) Refresh(ctx context.Context, refreshToken string) (*provider.AuthResult, error) {
	return &provider.AuthResult{AccessToken: "at", RefreshToken: refreshToken, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *listingProvider) ListMessages(ctx context.Context, accessToken string, start, end time.Time) ([]*domain.EmailMessage, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.messages, nil
}

func newTestUsecase(t *testing.T, p *listingProvider, svc *fakeTextService) (EmailUsecase, *fakeDocumentRepo, *memAnalysisRepo, *IngestWorkerService) {
	t.Helper()

	registry := provider.NewRegistry(p)
	tokenManager := authusecase.NewTokenManager(newMemCredentialRepo(), registry, "test-secret")
	require.NoError(t, tokenManager.Store(p.name, &authusecase.Token{
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	documentRepo := newFakeDocumentRepo()
	analysisRepo := &memAnalysisRepo{}
	ingestWorker := NewIngestWorkerService(documentRepo, svc, 2, 50)
	ingestWorker.Start()

	uc := NewEmailUsecase(registry, tokenManager, documentRepo, analysisRepo, NewSummarizer(svc, 10), ingestWorker, 30)
	return uc, documentRepo, analysisRepo, ingestWorker
}

func TestFetchMessagesQueuesIngestion(t *testing.T) {
	p := &listingProvider{name: "gmail", messages: makeMessages(6)}
	uc, documentRepo, _, worker := newTestUsecase(t, p, &fakeTextService{})

	messages, err := uc.FetchMessages(context.Background(), "gmail", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, messages, 6)

	worker.Stop()
	require.Equal(t, 6, documentRepo.count())
}

func TestFetchMessagesUnknownProvider(t *testing.T) {
	p := &listingProvider{name: "gmail"}
	uc, _, _, worker := newTestUsecase(t, p, &fakeTextService{})
	defer worker.Stop()

	_, err := uc.FetchMessages(context.Background(), "yahoo", time.Now().AddDate(0, 0, -7), time.Now())
	require.ErrorIs(t, err, apperr.ErrUnknownProvider)
}

func TestFetchMessagesWithoutToken(t *testing.T) {
	registry := provider.NewRegistry(&listingProvider{name: "gmail"})
	tokenManager := authusecase.NewTokenManager(newMemCredentialRepo(), registry, "test-secret")

	documentRepo := newFakeDocumentRepo()
	worker := NewIngestWorkerService(documentRepo, &fakeTextService{}, 1, 10)
	uc := NewEmailUsecase(registry, tokenManager, documentRepo, &memAnalysisRepo{}, NewSummarizer(&fakeTextService{}, 10), worker, 30)

	_, err := uc.FetchMessages(context.Background(), "gmail", time.Now().AddDate(0, 0, -7), time.Now())
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
}

func TestAnalyzePersistsResult(t *testing.T) {
	p := &listingProvider{name: "gmail", messages: makeMessages(25)}
	svc := &fakeTextService{}
	uc, _, analysisRepo, worker := newTestUsecase(t, p, svc)
	defer worker.Stop()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)

	result, err := uc.Analyze(context.Background(), "gmail", start, end)
	require.NoError(t, err)
	require.Equal(t, "gmail", result.Provider)
	require.Equal(t, 25, result.TotalEmails)
	require.Len(t, result.BatchSummaries, 3)
	require.Equal(t, "final synthesis", result.FinalSummary)
	require.NotEmpty(t, result.ID)

	stored, err := analysisRepo.Query("gmail", nil, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, result.ID, stored[0].ID)
}

func TestAnalyzeEmptyRange(t *testing.T) {
	p := &listingProvider{name: "gmail", messages: nil}
	uc, _, analysisRepo, worker := newTestUsecase(t, p, &fakeTextService{})
	defer worker.Stop()

	_, err := uc.Analyze(context.Background(), "gmail", time.Now().AddDate(0, 0, -7), time.Now())
	require.ErrorIs(t, err, apperr.ErrEmptyCorpus)

	stored, err := analysisRepo.Query("gmail", nil, nil)
	require.NoError(t, err)
	require.Empty(t, stored, "failed analyses must not be persisted")
}

func TestGetAnalysesFiltersByOverlap(t *testing.T) {
	p := &listingProvider{name: "gmail", messages: makeMessages(3)}
	uc, _, analysisRepo, worker := newTestUsecase(t, p, &fakeTextService{})
	defer worker.Stop()

	june := &domain.AnalysisResult{
		ID: "june", Provider: "gmail",
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	july := &domain.AnalysisResult{
		ID: "july", Provider: "gmail",
		StartDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, analysisRepo.Insert(june))
	require.NoError(t, analysisRepo.Insert(july))

	from := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	results, err := uc.GetAnalyses("gmail", &from, &to)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "june", results[0].ID)
}
