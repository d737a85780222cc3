package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
)

// ErrEmptyEmbedding is returned when a provider answers without a vector.
var ErrEmptyEmbedding = errors.New("empty embedding result")

// Embedder turns text into a fixed-length vector. An Embedder is created once
// per process and released with Close on shutdown.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
	Close() error
}

// NewEmbedder builds the embedder selected by cfg.Provider.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case config.EmbeddingProviderGemini:
		return NewGeminiEmbedder(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	case config.EmbeddingProviderOpenAI:
		return NewOpenAIEmbedder(OpenAIEmbedderConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

type serializedEmbedder struct {
	mu    sync.Mutex
	inner Embedder
}

// NewSerializedEmbedder guards inner with a mutex so that at most one Embed
// call runs at a time.
func NewSerializedEmbedder(inner Embedder) Embedder {
	return &serializedEmbedder{inner: inner}
}

func (s *serializedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Embed(ctx, text)
}

func (s *serializedEmbedder) Model() string {
	return s.inner.Model()
}

func (s *serializedEmbedder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}
