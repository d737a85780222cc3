package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-screener/internal/models"
)

var ErrScreeningNotFound = errors.New("screening not found")

type ScreeningRepository interface {
	Create(ctx context.Context, run *models.ScreeningRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error)
}

type screeningRepository struct {
	db *gorm.DB
}

func NewScreeningRepository(db *gorm.DB) ScreeningRepository {
	return &screeningRepository{db: db}
}

func (r *screeningRepository) Create(ctx context.Context, run *models.ScreeningRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.DocumentCount = len(run.Results)

	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create screening run: %w", err)
	}
	return nil
}

func (r *screeningRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error) {
	var run models.ScreeningRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScreeningNotFound
		}
		return nil, fmt.Errorf("failed to find screening run: %w", err)
	}
	return &run, nil
}
