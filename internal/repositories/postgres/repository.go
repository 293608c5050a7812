package postgres

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db         *gorm.DB
	prompt     repositories.PromptRepository
	question   repositories.QuestionRepository
	attempt    repositories.AttemptRepository
	submission repositories.SubmissionRepository
	feedback   repositories.FeedbackRepository
	audit      repositories.AuditRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		prompt:     NewPromptPostgreSQL(db),
		question:   NewQuestionPostgreSQL(db),
		attempt:    NewAttemptPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
		feedback:   NewFeedbackPostgreSQL(db),
		audit:      NewAuditPostgreSQL(db),
	}
}

func (r *repository) Prompt() repositories.PromptRepository         { return r.prompt }
func (r *repository) Question() repositories.QuestionRepository     { return r.question }
func (r *repository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *repository) Submission() repositories.SubmissionRepository { return r.submission }
func (r *repository) Feedback() repositories.FeedbackRepository     { return r.feedback }
func (r *repository) Audit() repositories.AuditRepository           { return r.audit }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// getDB returns the transaction when one is given.
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
