package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EmbeddingFunctionClient calls a remote embedding function that accepts {"input": text} and
// answers {"embedding": [...]}.
type EmbeddingFunctionClient struct {
	url        string
	apiKey     string
	dims       int
	httpClient *http.Client
}

// NewEmbeddingFunctionClient builds a client for url. dims is the expected vector size; a response
// of any other size is rejected.
func NewEmbeddingFunctionClient(url, apiKey string, dims int, httpClient *http.Client) *EmbeddingFunctionClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &EmbeddingFunctionClient{url: url, apiKey: apiKey, dims: dims, httpClient: httpClient}
}

func (c *EmbeddingFunctionClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"input": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding function: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding function error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errEmptyEmbedding
	}
	if c.dims > 0 && len(out.Embedding) != c.dims {
		return nil, fmt.Errorf("embedding function returned %d dimensions, want %d", len(out.Embedding), c.dims)
	}
	return out.Embedding, nil
}
