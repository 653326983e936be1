package backlog

import (
	"context"

	"github.com/xelth-com/receivinggo/internal/database"
	"github.com/xelth-com/receivinggo/internal/models"
)

// History persists sweep runs
type History interface {
	Start(ctx context.Context, run *models.BacklogSweepRun) error
	Finish(ctx context.Context, run *models.BacklogSweepRun) error
	Recent(ctx context.Context, limit int) ([]models.BacklogSweepRun, error)
}

// GormHistory keeps sweep runs in Postgres
type GormHistory struct {
	db *database.DB
}

// NewGormHistory creates a history backed by db
func NewGormHistory(db *database.DB) *GormHistory {
	return &GormHistory{db: db}
}

func (h *GormHistory) Start(ctx context.Context, run *models.BacklogSweepRun) error {
	return h.db.WithContext(ctx).Create(run).Error
}

func (h *GormHistory) Finish(ctx context.Context, run *models.BacklogSweepRun) error {
	return h.db.WithContext(ctx).Save(run).Error
}

func (h *GormHistory) Recent(ctx context.Context, limit int) ([]models.BacklogSweepRun, error) {
	var runs []models.BacklogSweepRun
	err := h.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
