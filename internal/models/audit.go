package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditPromptPublished      AuditEventType = "prompt_published"
	AuditPromptVersionCreated AuditEventType = "prompt_version_created"
	AuditFeedbackReturned     AuditEventType = "feedback_returned"
	AuditResultsExported      AuditEventType = "results_exported"
)

// AuditLog records staff actions on prompts and submissions.
type AuditLog struct {
	ID        string         `json:"id" gorm:"primaryKey;type:uuid"`
	EventType AuditEventType `json:"event_type" gorm:"not null;index"`

	// Actor information
	UserID string `json:"user_id" gorm:"not null;index;size:255"`

	// Target information
	TargetType string `json:"target_type" gorm:"size:50;index:idx_audit_target"` // prompt, submission
	TargetID   string `json:"target_id" gorm:"size:36;index:idx_audit_target"`

	Description string         `json:"description" gorm:"not null;type:text"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func NewAuditLog(eventType AuditEventType, userID, targetType, targetID, description string, metadata map[string]interface{}) *AuditLog {
	entry := &AuditLog{
		ID:          uuid.NewString(),
		EventType:   eventType,
		UserID:      userID,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	return entry
}
