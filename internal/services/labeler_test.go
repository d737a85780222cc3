package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"alfredoptarigan/resume-screener/internal/models"
)

func TestFitLabeler_Label(t *testing.T) {
	labeler := DefaultFitLabeler()

	tests := []struct {
		score float64
		want  models.FitLabel
	}{
		{1.0, models.LabelStrong},
		{0.70, models.LabelStrong},
		{0.6999, models.LabelModerate},
		{0.50, models.LabelModerate},
		{0.4999, models.LabelWeak},
		{0, models.LabelWeak},
		{-0.3, models.LabelWeak},
		{1.5, models.LabelStrong},
		{math.NaN(), models.LabelWeak},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, labeler.Label(tt.score), "score %v", tt.score)
	}
}

func TestFitLabeler_PartitionIsExhaustive(t *testing.T) {
	labeler := DefaultFitLabeler()

	for i := 0; i <= 1000; i++ {
		s := float64(i) / 1000
		got := labeler.Label(s)
		switch {
		case s >= 0.70:
			assert.Equal(t, models.LabelStrong, got, "score %v", s)
		case s >= 0.50:
			assert.Equal(t, models.LabelModerate, got, "score %v", s)
		default:
			assert.Equal(t, models.LabelWeak, got, "score %v", s)
		}
	}
}

func TestFitLabeler_CustomThresholds(t *testing.T) {
	labeler := NewFitLabeler(0.8, 0.6)

	assert.Equal(t, models.LabelModerate, labeler.Label(0.75))
	assert.Equal(t, models.LabelWeak, labeler.Label(0.55))
	assert.Equal(t, models.LabelStrong, labeler.Label(0.8))
}
