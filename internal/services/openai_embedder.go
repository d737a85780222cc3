package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
)

// OpenAIEmbedderConfig configures an embedder for any OpenAI-compatible
// /embeddings endpoint.
type OpenAIEmbedderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

type openAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *zap.Logger
}

func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := applog.OrNop(cfg.Logger)

	return &openAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.Model),
		logger: logger.With(zap.String("provider", config.EmbeddingProviderOpenAI), zap.String("model", cfg.Model)),
	}
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(config.EmbeddingProviderOpenAI, string(e.model), "error").Inc()
		e.logger.Warn("Embedding request failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, parseEmbeddingAPIError(err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(config.EmbeddingProviderOpenAI, string(e.model), "error").Inc()
		return nil, ErrEmptyEmbedding
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(config.EmbeddingProviderOpenAI, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(config.EmbeddingProviderOpenAI, string(e.model)).Observe(duration.Seconds())

	e.logger.Debug("Embedding request completed",
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Data[0].Embedding, nil
}

func (e *openAIEmbedder) Model() string {
	return string(e.model)
}

func (e *openAIEmbedder) Close() error {
	return nil
}

func parseEmbeddingAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %w", reqErr.HTTPStatusCode, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	return fmt.Errorf("embedding request failed: %w", err)
}
