package database

import (
	"context"
	"log"

	"crop-catch/internal/models"

	"gorm.io/gorm"
)

// AuditLogger writes admin actions to the audit_logs table.
type AuditLogger struct {
	db *gorm.DB
}

func NewAuditLogger(db *gorm.DB) *AuditLogger {
	return &AuditLogger{db: db}
}

// Record never fails the caller; a write error is only logged.
func (a *AuditLogger) Record(ctx context.Context, userID, entity, entityID, action, details string) {
	if a == nil || a.db == nil {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := a.db.WithContext(ctx).Create(&record).Error; err != nil {
		log.Printf("[audit] failed to record %s/%s %s: %v", entity, entityID, action, err)
	}
}

func (a *AuditLogger) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := a.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
