package models

import (
	"time"

	"gorm.io/gorm"
)

// BacklogStatusPending is the only status a backlog entry carries; resolved entries are deleted
const BacklogStatusPending = "Pending"

// BacklogEntry is a PO waiting to appear in the vendor system
type BacklogEntry struct {
	PONumber    string    `json:"poNumber"`
	DateAdded   time.Time `json:"dateAdded"`
	LastChecked time.Time `json:"lastChecked"`
	Status      string    `json:"status"`
	RowNumber   int       `json:"rowNumber,omitempty"`
}

// Sweep triggers
const (
	SweepTriggerSchedule = "schedule"
	SweepTriggerManual   = "manual"
)

// BacklogSweepRun records one pass of the backlog checker
type BacklogSweepRun struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Trigger     string         `gorm:"column:trigger;not null;index" json:"trigger"`
	StartedAt   time.Time      `gorm:"column:started_at;not null" json:"startedAt"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completedAt"`
	Duration    int            `gorm:"column:duration;default:0" json:"duration"` // milliseconds
	Checked     int            `gorm:"column:checked;default:0" json:"checked"`
	Found       int            `gorm:"column:found;default:0" json:"found"`
	NotFound    int            `gorm:"column:not_found;default:0" json:"notFound"`
	Errors      int            `gorm:"column:errors;default:0" json:"errors"`
	ErrorDetail string         `gorm:"column:error_detail;type:text" json:"errorDetail,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (BacklogSweepRun) TableName() string {
	return "backlog_sweep_runs"
}
