package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-screener/internal/config"
	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
)

// Inputs above this many runes are cut before embedding (~10000 tokens).
const geminiMaxEmbedRunes = 40000

type geminiEmbedder struct {
	client     *genai.Client
	embedModel string
	logger     *zap.Logger
}

// NewGeminiEmbedder builds an embedder on the Gemini API. An empty baseURL
// keeps the SDK default endpoint.
func NewGeminiEmbedder(ctx context.Context, apiKey, baseURL, model string, logger *zap.Logger) (Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = config.DefaultEmbeddingModel
	}
	logger = applog.OrNop(logger)

	return &geminiEmbedder{
		client:     client,
		embedModel: model,
		logger:     logger.With(zap.String("provider", config.EmbeddingProviderGemini), zap.String("model", model)),
	}, nil
}

func (g *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = TruncateRunes(text, geminiMaxEmbedRunes)

	start := time.Now()
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(config.EmbeddingProviderGemini, g.embedModel, "error").Inc()
		g.logger.Warn("Embedding request failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil || len(result.Embeddings[0].Values) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(config.EmbeddingProviderGemini, g.embedModel, "error").Inc()
		g.logger.Warn("Embedding response carried no values", zap.Duration("duration", duration))
		return nil, ErrEmptyEmbedding
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(config.EmbeddingProviderGemini, g.embedModel, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(config.EmbeddingProviderGemini, g.embedModel).Observe(duration.Seconds())

	g.logger.Debug("Embedding request completed",
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embeddings[0].Values)),
	)

	return result.Embeddings[0].Values, nil
}

func (g *geminiEmbedder) Model() string {
	return g.embedModel
}

// Close is a no-op: the genai client holds no resources beyond its HTTP client.
func (g *geminiEmbedder) Close() error {
	return nil
}
