package services

import (
	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/models"
)

// FitLabeler maps a similarity score onto an ordinal fit label.
type FitLabeler struct {
	Strong   float64
	Moderate float64
}

func NewFitLabeler(strong, moderate float64) FitLabeler {
	return FitLabeler{Strong: strong, Moderate: moderate}
}

func DefaultFitLabeler() FitLabeler {
	return NewFitLabeler(config.DefaultStrongThreshold, config.DefaultModerateThreshold)
}

// Label is total over all float64 values; NaN is Weak.
func (l FitLabeler) Label(score float64) models.FitLabel {
	switch {
	case score >= l.Strong:
		return models.LabelStrong
	case score >= l.Moderate:
		return models.LabelModerate
	default:
		return models.LabelWeak
	}
}
