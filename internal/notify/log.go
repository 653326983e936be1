package notify

import (
	"context"

	"github.com/xelth-com/receivinggo/internal/database"
	"github.com/xelth-com/receivinggo/internal/models"
)

// LogStore persists dispatched notifications
type LogStore interface {
	Record(ctx context.Context, entry *models.NotificationLog) error
	Recent(ctx context.Context, po string, limit int) ([]models.NotificationLog, error)
}

// GormLog stores the notification log in Postgres
type GormLog struct {
	db *database.DB
}

// NewGormLog creates a log backed by db
func NewGormLog(db *database.DB) *GormLog {
	return &GormLog{db: db}
}

// Record implements LogStore
func (l *GormLog) Record(ctx context.Context, entry *models.NotificationLog) error {
	return l.db.WithContext(ctx).Create(entry).Error
}

// Recent implements LogStore. An empty po returns entries for every PO.
func (l *GormLog) Recent(ctx context.Context, po string, limit int) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	q := l.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if po != "" {
		q = q.Where("po_number = ?", po)
	}
	err := q.Find(&entries).Error
	return entries, err
}
