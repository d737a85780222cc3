package models

import (
	"time"

	"github.com/google/uuid"
)

type FitLabel string

const (
	LabelStrong        FitLabel = "Strong"
	LabelModerate      FitLabel = "Moderate"
	LabelWeak          FitLabel = "Weak"
	LabelCannotProcess FitLabel = "Cannot Process"
)

// ResultRecord is the per-document outcome of a screening run.
type ResultRecord struct {
	Filename     string   `json:"filename"`
	Score        int      `json:"score"`
	RawScore     float64  `json:"raw_score"`
	Label        FitLabel `json:"label"`
	Summary      string   `json:"summary"`
	SummaryError string   `json:"summary_error,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ScorePercent converts a similarity in [0,1] into an integer percentage,
// truncating toward zero and clamping to 0..100.
func ScorePercent(raw float64) int {
	pct := int(raw * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ScreeningRun is a stored screening run. Only persisted when history is enabled.
type ScreeningRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	JobDescription string         `gorm:"type:text" json:"job_description"`
	DocumentCount  int            `gorm:"not null" json:"document_count"`
	Results        []ResultRecord `gorm:"type:jsonb;serializer:json" json:"results"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (ScreeningRun) TableName() string {
	return "screening_runs"
}
