package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
	"alfredoptarigan/resume-screener/internal/models"
)

const (
	MsgExtractionFailed = "Could not extract text from this file."
	MsgScoringFailed    = "Could not compute a similarity score for this file."
	MsgCancelled        = "Screening was cancelled before this file was processed."
)

type ScreenerService interface {
	Screen(ctx context.Context, jobDescription string, docs []models.Document) ([]models.ResultRecord, error)
}

type ScreenerConfig struct {
	// Concurrency is the number of documents processed at once; 1 is sequential.
	Concurrency     int
	DocumentTimeout time.Duration
}

type screenerService struct {
	extractor  DocumentExtractor
	scorer     *SimilarityScorer
	labeler    FitLabeler
	summarizer SummaryGenerator
	cfg        ScreenerConfig
	logger     *zap.Logger
}

func NewScreenerService(
	extractor DocumentExtractor,
	scorer *SimilarityScorer,
	labeler FitLabeler,
	summarizer SummaryGenerator,
	cfg ScreenerConfig,
	logger *zap.Logger,
) ScreenerService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	logger = applog.OrNop(logger)
	return &screenerService{
		extractor:  extractor,
		scorer:     scorer,
		labeler:    labeler,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Screen scores every document against the job description. Results are in
// input order. Per-document failures are reported inside the records; an error
// is returned only if the job description cannot be embedded or ctx ends.
func (s *screenerService) Screen(ctx context.Context, jobDescription string, docs []models.Document) ([]models.ResultRecord, error) {
	start := time.Now()
	defer func() {
		metrics.ScreeningRunDuration.Observe(time.Since(start).Seconds())
	}()

	s.logger.Info("Starting screening run",
		zap.Int("documents", len(docs)),
		zap.Int("concurrency", s.cfg.Concurrency),
	)

	profile, err := s.scorer.PrepareJob(ctx, jobDescription)
	if err != nil {
		return nil, err
	}

	results := make([]models.ResultRecord, len(docs))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = s.screenOne(ctx, profile, doc)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("screening interrupted: %w", err)
	}

	s.logger.Info("Screening run completed",
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}

func (s *screenerService) screenOne(ctx context.Context, profile *JobProfile, doc models.Document) models.ResultRecord {
	log := s.logger.With(zap.String("file", doc.Filename))
	record := models.ResultRecord{Filename: doc.Filename}

	if ctx.Err() != nil {
		record.Label = models.LabelCannotProcess
		record.Error = MsgCancelled
		return record
	}

	if s.cfg.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DocumentTimeout)
		defer cancel()
	}

	text := s.extractor.Extract(doc)
	if strings.TrimSpace(text) == "" {
		log.Warn("No text extracted")
		record.Label = models.LabelCannotProcess
		record.Summary = MsgExtractionFailed
		metrics.DocumentsScreenedTotal.WithLabelValues(string(record.Label)).Inc()
		return record
	}

	raw, err := s.scorer.ScoreAgainst(ctx, profile, text)
	if err != nil {
		log.Error("Similarity scoring failed", zap.Error(err))
		record.Label = models.LabelCannotProcess
		record.Error = MsgScoringFailed
		metrics.DocumentsScreenedTotal.WithLabelValues(string(record.Label)).Inc()
		return record
	}

	record.RawScore = raw
	record.Score = models.ScorePercent(raw)
	record.Label = s.labeler.Label(raw)

	summary := s.summarizer.Summarize(ctx, text)
	record.Summary = summary.Display()
	if summary.Err != nil {
		record.SummaryError = string(summary.Err.Kind)
	}

	log.Info("Document screened",
		zap.Int("score", record.Score),
		zap.String("label", string(record.Label)),
	)
	metrics.DocumentsScreenedTotal.WithLabelValues(string(record.Label)).Inc()

	return record
}

// RankResults orders records by score, highest first. Ties keep input order.
func RankResults(records []models.ResultRecord) []models.ResultRecord {
	ranked := make([]models.ResultRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RawScore > ranked[j].RawScore
	})
	return ranked
}
