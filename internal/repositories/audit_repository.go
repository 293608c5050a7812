package repositories

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error
	ListByTarget(ctx context.Context, tx *gorm.DB, targetType, targetID string, limit int) ([]*models.AuditLog, error)
}
