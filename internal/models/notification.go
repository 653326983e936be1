package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationLog records one dispatched notification and whether it was delivered
type NotificationLog struct {
	ID         string         `gorm:"type:uuid;primaryKey" json:"id"`
	Kind       string         `gorm:"column:kind;not null;index" json:"kind"`
	PONumber   string         `gorm:"column:po_number;index" json:"poNumber"`
	Subject    string         `gorm:"column:subject" json:"subject"`
	Recipients datatypes.JSON `gorm:"column:recipients;type:jsonb" json:"recipients"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	Delivered  bool           `gorm:"column:delivered;index" json:"delivered"`
	Error      string         `gorm:"column:error;type:text" json:"error,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName specifies the table name
func (NotificationLog) TableName() string {
	return "notification_log"
}
