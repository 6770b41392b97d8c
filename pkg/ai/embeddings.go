package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/callscopehq/callscope/pkg/config"
)

// EmbeddingsClient calls an OpenAI-compatible embeddings endpoint.
type EmbeddingsClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewEmbeddingsClient creates an embeddings client using values from the provided config.
func NewEmbeddingsClient(cfg *config.EmbeddingsConfig) *EmbeddingsClient {
	return &EmbeddingsClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Model returns the embedding model identifier.
func (e *EmbeddingsClient) Model() string {
	return e.model
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed returns the embedding vector for the given text plus the token
// count reported by the provider.
func (e *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, int, error) {
	b, err := json.Marshal(embeddingRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, 0, err
	}

	endpoint := e.baseURL + "/v1/embeddings"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, 0, fmt.Errorf("embeddings returned status %d", resp.StatusCode)
	}

	var er embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, 0, err
	}
	if len(er.Data) == 0 {
		return nil, 0, fmt.Errorf("empty response from embeddings")
	}
	return er.Data[0].Embedding, er.Usage.TotalTokens, nil
}
