package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"khpanel/internal/models"
)

// AuditRepository persists diagnostic log lines.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one log line.
func (r *AuditRepository) Append(level, context, message string) error {
	row := models.AuditLog{
		Level:   level,
		Context: context,
		Message: message,
	}
	return r.db.Create(&row).Error
}

// AppendTrace persists an ordered diagnostic trace under one context. Each
// line's level is taken from its prefix, so a provisioning trace lands in the
// log exactly as it was accumulated.
func (r *AuditRepository) AppendTrace(context string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.AuditLog, 0, len(lines))
	for _, line := range lines {
		level := "INFO"
		message := line
		switch {
		case strings.HasPrefix(line, "ERROR: "):
			level = "ERROR"
			message = strings.TrimPrefix(line, "ERROR: ")
		case strings.HasPrefix(line, "WARN: "):
			level = "WARN"
			message = strings.TrimPrefix(line, "WARN: ")
		case strings.HasPrefix(line, "INFO: "):
			message = strings.TrimPrefix(line, "INFO: ")
		}
		rows = append(rows, models.AuditLog{
			Level:   level,
			Context: context,
			Message: message,
		})
	}
	return r.db.Create(&rows).Error
}

// Recent returns the newest log lines, optionally filtered by level.
func (r *AuditRepository) Recent(limit int, level string) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	db := r.db.Model(&models.AuditLog{})
	if level != "" {
		db = db.Where("level = ?", level)
	}
	var logs []models.AuditLog
	err := db.Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// Prune deletes log lines older than the retention window.
func (r *AuditRepository) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := r.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}
