package postgres

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

func (a *AuditPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	return getDB(a.db, tx).WithContext(ctx).Create(entry).Error
}

// ListByTarget returns the newest entries first.
func (a *AuditPostgreSQL) ListByTarget(ctx context.Context, tx *gorm.DB, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	query := getDB(a.db, tx).WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
