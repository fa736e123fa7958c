package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	// DefaultMaxChars bounds the text sent to the provider; anything longer
	// blows provider-side token limits.
	DefaultMaxChars = 4000

	maxAttempts = 3
	backoffStep = 500 * time.Millisecond
)

// ProviderError reports that the embedding provider failed for every
// attempt. Ingestion callers treat it as a skip-and-continue signal for the
// one item; query callers surface it as a fatal error.
type ProviderError struct {
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// embedRequest is the provider's request contract.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse carries the embedding field the pipeline requires.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Client turns text into fixed-dimension vectors via an external embedding
// provider, retrying transient failures with linear backoff.
type Client struct {
	baseURL    string
	model      string
	maxChars   int
	httpClient *http.Client
	logger     *log.Logger

	// backoff is the per-attempt delay step; tests shrink it.
	backoff time.Duration
}

// NewClient builds a client against an ollama-compatible embeddings
// endpoint. maxChars <= 0 selects the default.
func NewClient(baseURL, model string, maxChars int, timeout time.Duration, logger *log.Logger) *Client {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[EMBED] ", log.LstdFlags)
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		maxChars:   maxChars,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		backoff:    backoffStep,
	}
}

// Embed returns the embedding vector for text, truncated to the configured
// character budget. Up to 3 attempts are made; attempt n sleeps n*500ms
// before the next try. Exhaustion surfaces the last error wrapped in a
// ProviderError.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > c.maxChars {
		text = text[:c.maxChars]
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		vec, err := c.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		c.logger.Printf("attempt %d/%d failed: %v", attempt, maxAttempts, err)
		delay := time.Duration(attempt) * c.backoff
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &ProviderError{Attempts: attempt, Err: ctx.Err()}
		}
	}
	return nil, &ProviderError{Attempts: maxAttempts, Err: lastErr}
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Embedding) == 0 {
		return nil, fmt.Errorf("provider returned empty embedding")
	}
	return decoded.Embedding, nil
}
