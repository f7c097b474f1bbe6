package ai

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

// OllamaService talks to a local Ollama instance.
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaService{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OllamaService) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("You are an expert at analyzing and summarizing email content. "+
		"Provide a concise but comprehensive summary of the key points from the following email batch:\n\n%s", text)
	return s.generate(ctx, "summarize", prompt)
}

func (s *OllamaService) Complete(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, "complete", prompt)
}

func (s *OllamaService) generate(ctx context.Context, operation, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  s.model,
		"prompt": prompt,
		"stream": false,
	}

	respBody, err := s.post(ctx, operation, "/api/generate", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Response, nil
}

func (s *OllamaService) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model":  s.model,
		"prompt": text,
	}

	respBody, err := s.post(ctx, "embed", "/api/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return result.Embedding, nil
}

func (s *OllamaService) post(ctx context.Context, operation, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.ObserveAICall(operation, "failed", time.Since(start))
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveAICall(operation, "failed", time.Since(start))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveAICall(operation, "failed", time.Since(start))
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	metrics.ObserveAICall(operation, "success", time.Since(start))
	return respBody, nil
}
