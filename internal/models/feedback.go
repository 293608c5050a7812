package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Rubric criteria used by reviewers.
const (
	CriterionTaskAchievement = "TaskAchievement"
	CriterionCoherence       = "Coherence"
	CriterionLexical         = "Lexical"
	CriterionGrammar         = "Grammar"
)

var RubricCriteria = []string{
	CriterionTaskAchievement,
	CriterionCoherence,
	CriterionLexical,
	CriterionGrammar,
}

// LengthPenalty is deducted from Task Achievement when the word band was missed.
const LengthPenalty = 0.5

type Feedback struct {
	ID                   string         `json:"id" gorm:"primaryKey;type:uuid"`
	SubmissionID         string         `json:"submission_id" gorm:"not null;type:uuid;index"`
	Rubric               datatypes.JSON `json:"rubric" gorm:"type:jsonb"` // map[string]float64
	OverallScore         float64        `json:"overall_score"`
	LengthPenaltyApplied bool           `json:"length_penalty_applied" gorm:"default:false"`
	CommentsText         string         `json:"comments_text" gorm:"type:text"`
	ReviewerID           string         `json:"reviewer_id" gorm:"size:255"`
	CreatedAt            time.Time      `json:"created_at" gorm:"index"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// RubricScores decodes the rubric. A malformed rubric yields an empty map.
func (f *Feedback) RubricScores() map[string]float64 {
	scores := map[string]float64{}
	if len(f.Rubric) == 0 {
		return scores
	}
	_ = json.Unmarshal(f.Rubric, &scores)
	return scores
}
