package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultEmbeddingDimension matches text-embedding-3-small.
const DefaultEmbeddingDimension = 1536

var (
	ErrEmptyInput        = errors.New("embedding input is empty")
	ErrEmptyEmbedding    = errors.New("empty embedding in response")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// EmbeddingConfig holds API settings for text-embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// Embed returns the embedding vector for the given text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, cfg EmbeddingConfig, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	reqBody := map[string]interface{}{
		"model": cfg.Model,
		"input": text,
	}
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, cfg.BaseURL, cfg.APIKey, "/embeddings", reqBody, &parsed); err != nil {
		return nil, fmt.Errorf("embedding %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	vec := parsed.Data[0].Embedding
	if cfg.Dimension > 0 && len(vec) != cfg.Dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), cfg.Dimension)
	}
	return vec, nil
}

// Embedder binds a client to one embedding model so callers only pass text.
type Embedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig) *Embedder {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultEmbeddingDimension
	}
	return &Embedder{client: client, cfg: cfg}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.client.Embed(ctx, e.cfg, text)
}

func (e *Embedder) Dimension() int {
	return e.cfg.Dimension
}
