package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Floressek/MailAnalyzer/internal/email/domain"
	"github.com/Floressek/MailAnalyzer/internal/email/repository"
	"github.com/Floressek/MailAnalyzer/pkg/ai"
	"github.com/Floressek/MailAnalyzer/pkg/apperr"
	"github.com/Floressek/MailAnalyzer/pkg/vector"
)

const defaultSearchLimit = 5

// SearchResult is the outcome of a semantic search over the stored corpus.
type SearchResult struct {
	Query        string                  `json:"query"`
	TotalResults int                     `json:"totalResults"`
	Results      []*domain.EmailDocument `json:"results"`
	Analysis     string                  `json:"analysis,omitempty"`
}

// SearchService ranks stored documents against a query by cosine
// similarity of their embeddings.
type SearchService struct {
	documentRepo repository.DocumentRepository
	textService  ai.TextService
}

func NewSearchService(documentRepo repository.DocumentRepository, textService ai.TextService) *SearchService {
	return &SearchService{documentRepo: documentRepo, textService: textService}
}

// Search embeds the query, scores every embedded document and returns the
// top matches with a generated narration. Documents without a usable
// embedding are skipped rather than scored at zero.
func (s *SearchService) Search(ctx context.Context, query, providerName string, startDate, endDate *time.Time, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.NewValidation("query", "must not be empty")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryEmbedding, err := s.textService.Embed(ctx, query)
	if err != nil {
		return nil, &apperr.GenerationError{Op: "embed query", Err: err}
	}

	var docs []*domain.EmailDocument
	if providerName != "" || startDate != nil || endDate != nil {
		docs, err = s.documentRepo.Query(providerName, startDate, endDate)
	} else {
		docs, err = s.documentRepo.QueryAll()
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "query documents", Err: err}
	}

	scored := make([]*domain.EmailDocument, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) == 0 || len(doc.Embedding) != len(queryEmbedding) {
			continue
		}
		doc.Similarity = vector.CosineSimilarity(queryEmbedding, doc.Embedding)
		scored = append(scored, doc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	// Total counts every scored candidate, not just the returned page.
	total := len(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	result := &SearchResult{
		Query:        query,
		TotalResults: total,
		Results:      scored,
	}

	if len(scored) == 0 {
		return result, nil
	}

	analysis, err := s.narrate(ctx, query, scored)
	if err != nil {
		return nil, &apperr.GenerationError{Op: "narrate results", Err: err}
	}
	result.Analysis = analysis
	return result, nil
}

func (s *SearchService) narrate(ctx context.Context, query string, docs []*domain.EmailDocument) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Based on the search query %q, analyze these matching emails and explain how they relate to the query:\n\n", query))
	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("%d. (similarity %.2f)\n%s\n\n", i+1, doc.Similarity, doc.Content))
	}
	return s.textService.Complete(ctx, sb.String())
}
