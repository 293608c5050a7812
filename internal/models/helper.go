package models

import "time"

type ExportRequest struct {
	PromptID string            `json:"prompt_id" validate:"required"`
	Format   string            `json:"format" validate:"omitempty,oneof=xlsx"`
	Status   *SubmissionStatus `json:"status"`
	Mode     *AttemptMode      `json:"mode"`
	DateFrom *time.Time        `json:"date_from"`
	DateTo   *time.Time        `json:"date_to"`

	RequestedBy string `json:"-"`
}

type ExportSummary struct {
	FileName    string    `json:"file_name"`
	Rows        int       `json:"rows"`
	GeneratedAt time.Time `json:"generated_at"`
}
