package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Floressek/MailAnalyzer/pkg/metrics"
)

const baseURL = "https://api.openai.com/v1"

type Service struct {
	apiKey          string
	completionModel string
	embeddingModel  string
	client          *http.Client
}

func NewService(apiKey, completionModel, embeddingModel string) *Service {
	if completionModel == "" {
		completionModel = "gpt-4o-2024-08-06"
	}
	if embeddingModel == "" {
		embeddingModel = "text-embedding-ada-002"
	}
	return &Service{
		apiKey:          apiKey,
		completionModel: completionModel,
		embeddingModel:  embeddingModel,
		client:          &http.Client{Timeout: 60 * time.Second},
	}
}

// Summarize condenses a batch of email text into a summary.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	system := "You are an expert at analyzing and summarizing email content. " +
		"Provide a concise but comprehensive summary of the key points, patterns, and important " +
		"information from the provided emails."
	user := fmt.Sprintf("Please analyze and summarize the following email batch:\n\n%s", text)
	return s.chat(ctx, "summarize", system, user)
}

// Complete answers an arbitrary prompt.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	system := "You are an expert email analyst. Answer precisely and concisely."
	return s.chat(ctx, "complete", system, prompt)
}

func (s *Service) chat(ctx context.Context, operation, system, user string) (string, error) {
	payload := map[string]interface{}{
		"model": s.completionModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.3,
	}

	respBody, err := s.post(ctx, operation, "/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return result.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for a text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": s.embeddingModel,
		"input": text,
	}

	respBody, err := s.post(ctx, "embed", "/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return result.Data[0].Embedding, nil
}

func (s *Service) post(ctx context.Context, operation, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.ObserveAICall(operation, "failed", time.Since(start))
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveAICall(operation, "failed", time.Since(start))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveAICall(operation, "failed", time.Since(start))
		return nil, fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(respBody))
	}

	metrics.ObserveAICall(operation, "success", time.Since(start))
	return respBody, nil
}
