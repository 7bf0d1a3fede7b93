package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaURL   = "http://localhost:11434/api/generate"
	DefaultOllamaModel = "llama3"
)

// OllamaGenerator calls a local Ollama server's non-streaming generate endpoint.
type OllamaGenerator struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaGenerator creates a new Ollama generator. endpoint is the full
// generate URL (e.g. http://localhost:11434/api/generate).
func NewOllamaGenerator(endpoint, model string, timeout time.Duration) *OllamaGenerator {
	if endpoint == "" {
		endpoint = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OllamaGenerator{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

// GenerateText posts prompt and returns the trimmed "response" field.
func (g *OllamaGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return strings.TrimSpace(result.Response), nil
}

// Name returns the generator name.
func (g *OllamaGenerator) Name() string {
	return "ollama:" + g.model
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}
