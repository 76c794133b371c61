package models

import "time"

// AuditLog is one persisted diagnostic line. Provisioning traces are written
// here so an admin can review what every vendor call actually did.
type AuditLog struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Level     string    `gorm:"column:level;size:20" json:"level"`
	Context   string    `gorm:"column:context;size:200" json:"context"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
