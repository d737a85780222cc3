package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	applog "alfredoptarigan/resume-screener/internal/logger"
)

// JobProfile holds a job description and its embedding for one screening run.
// A blank description has no vector and scores every resume 0.
type JobProfile struct {
	Text   string
	vector []float32
}

// SimilarityScorer compares texts by the cosine similarity of their embeddings.
type SimilarityScorer struct {
	embedder Embedder
	logger   *zap.Logger
}

func NewSimilarityScorer(embedder Embedder, logger *zap.Logger) *SimilarityScorer {
	logger = applog.OrNop(logger)
	return &SimilarityScorer{
		embedder: embedder,
		logger:   logger,
	}
}

// Score returns the similarity of resumeText and jobDescription in [0,1].
// Blank input on either side yields 0 without calling the embedder.
func (s *SimilarityScorer) Score(ctx context.Context, resumeText, jobDescription string) (float64, error) {
	if isBlank(resumeText) || isBlank(jobDescription) {
		return 0, nil
	}

	profile, err := s.PrepareJob(ctx, jobDescription)
	if err != nil {
		return 0, err
	}
	return s.ScoreAgainst(ctx, profile, resumeText)
}

// PrepareJob embeds the job description once so that a batch of resumes can
// be scored against it.
func (s *SimilarityScorer) PrepareJob(ctx context.Context, jobDescription string) (*JobProfile, error) {
	profile := &JobProfile{Text: jobDescription}
	if isBlank(jobDescription) {
		return profile, nil
	}

	vec, err := s.embedder.Embed(ctx, jobDescription)
	if err != nil {
		return nil, fmt.Errorf("failed to embed job description: %w", err)
	}
	profile.vector = vec
	return profile, nil
}

func (s *SimilarityScorer) ScoreAgainst(ctx context.Context, profile *JobProfile, resumeText string) (float64, error) {
	if profile == nil || len(profile.vector) == 0 || isBlank(resumeText) {
		return 0, nil
	}

	vec, err := s.embedder.Embed(ctx, resumeText)
	if err != nil {
		return 0, fmt.Errorf("failed to embed resume: %w", err)
	}

	if len(vec) != len(profile.vector) {
		return 0, fmt.Errorf("embedding dimension mismatch: resume %d, job description %d", len(vec), len(profile.vector))
	}

	score := Cosine(vec, profile.vector)
	s.logger.Debug("Similarity computed", zap.Float64("score", score), zap.String("model", s.embedder.Model()))
	return score, nil
}

// Cosine returns the cosine similarity of a and b clamped to [0,1]. Vectors of
// different length or zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	x, y := toFloat64(a), toFloat64(b)
	norms := floats.Norm(x, 2) * floats.Norm(y, 2)
	if norms == 0 {
		return 0
	}

	sim := floats.Dot(x, y) / norms
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(0, math.Min(1, sim))
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
