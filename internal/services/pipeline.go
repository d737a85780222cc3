package services

import (
	"context"

	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
)

// Pipeline is a fully wired screener together with the embedder it owns.
type Pipeline struct {
	Screener ScreenerService
	Embedder Embedder
}

// NewPipeline builds the extraction, scoring, labeling and summary stages from
// cfg. The caller must Close the pipeline on shutdown.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	embedder, err := NewEmbedder(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Screening.Concurrency > 1 && !cfg.Embedding.ConcurrentSafe {
		embedder = NewSerializedEmbedder(embedder)
	}

	screener := NewScreenerService(
		NewDocumentExtractor(NewPDFParserService(), NewDOCXParserService(), logger),
		NewSimilarityScorer(embedder, logger),
		NewFitLabeler(cfg.Screening.StrongThreshold, cfg.Screening.ModerateThreshold),
		NewSummaryGenerator(SummaryConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
			MaxChars:    cfg.Screening.SummaryMaxChars,
			Referer:     cfg.LLM.Referer,
			Title:       cfg.LLM.Title,
		}, logger),
		ScreenerConfig{
			Concurrency:     cfg.Screening.Concurrency,
			DocumentTimeout: cfg.Screening.DocumentTimeout,
		},
		logger,
	)

	return &Pipeline{Screener: screener, Embedder: embedder}, nil
}

func (p *Pipeline) Close() error {
	return p.Embedder.Close()
}
