package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet    = "Results"
	exportTimestamp = "2006-01-02 15:04:05"
)

var resultHeaders = []string{
	"Submission ID", "User ID", "Attempt", "Mode", "Status", "Submitted At",
	"Word Count", "Length Violation", "MCQ", "Cloze", "Open", "Auto Total",
	"Overall Score", "Length Penalty", "Returned At",
}

type exportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewExportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ExportService {
	return &exportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ExportResults writes one spreadsheet row per submission of the prompt with
// auto scores and the latest reviewer feedback.
func (s *exportService) ExportResults(ctx context.Context, req *models.ExportRequest, w io.Writer) (*models.ExportSummary, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Prompt().GetByID(ctx, nil, req.PromptID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	submissions, _, err := s.repo.Submission().List(ctx, nil, repositories.SubmissionFilters{
		PromptID:  req.PromptID,
		Status:    req.Status,
		Mode:      req.Mode,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	ids := make([]string, len(submissions))
	for i, sub := range submissions {
		ids[i] = sub.ID
	}
	feedback, err := s.repo.Feedback().GetLatestBySubmissions(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := writeRow(f, 1, toCells(resultHeaders)); err != nil {
		return nil, err
	}
	for i, sub := range submissions {
		if err := writeRow(f, i+2, resultRow(sub, feedback[sub.ID])); err != nil {
			return nil, err
		}
	}

	if err := f.Write(w); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	generatedAt := s.now()
	summary := &models.ExportSummary{
		FileName:    fmt.Sprintf("results-%s-%s.xlsx", req.PromptID, generatedAt.Format("20060102-150405")),
		Rows:        len(submissions),
		GeneratedAt: generatedAt,
	}
	entry := models.NewAuditLog(models.AuditResultsExported, req.RequestedBy, "prompt", req.PromptID,
		"Results exported", map[string]interface{}{"rows": summary.Rows, "file_name": summary.FileName})
	if err := s.repo.Audit().Create(ctx, nil, entry); err != nil {
		s.logger.Warn("Failed to write audit log", "prompt_id", req.PromptID, "error", err)
	}

	s.logger.Info("Results exported successfully",
		"prompt_id", req.PromptID,
		"rows", summary.Rows)
	return summary, nil
}

func resultRow(sub *models.Submission, fb *models.Feedback) []interface{} {
	var scores scoreRecord
	if len(sub.ScoreBreakdown) > 0 {
		_ = json.Unmarshal(sub.ScoreBreakdown, &scores)
	}

	row := []interface{}{
		sub.ID,
		sub.UserID,
		sub.AttemptNumber,
		string(sub.Mode),
		string(sub.Status),
		formatTime(sub.SubmittedAt),
		sub.WordCount,
		sub.LengthViolation,
		scores.Summary.MCQ,
		scores.Summary.Cloze,
		scores.Summary.Open,
		scores.Summary.Total,
	}
	if fb != nil {
		row = append(row, fb.OverallScore, fb.LengthPenaltyApplied)
	} else {
		row = append(row, "", "")
	}
	return append(row, formatTime(sub.ReturnedAt))
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimestamp)
}
