package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/scoring"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func TestExportService_ExportResults(t *testing.T) {
	repo := newMockRepository()
	svc := NewExportService(repo, testLogger(), validator.New()).(*exportService)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	submittedAt := time.Date(2025, 2, 28, 14, 0, 0, 0, time.UTC)
	breakdown, err := json.Marshal(scoreRecord{Summary: scoring.Summary{MCQ: 2, Cloze: 1, Total: 3}})
	require.NoError(t, err)

	listening := &models.Submission{
		ID: "s1", UserID: "u1", PromptID: "p1", AttemptNumber: 1,
		Mode: models.ModeExam, Status: models.SubmissionSubmitted,
		SubmittedAt: &submittedAt, ScoreBreakdown: breakdown,
	}
	reviewed := &models.Submission{
		ID: "s2", UserID: "u2", PromptID: "p1", AttemptNumber: 2,
		Mode: models.ModePractice, Status: models.SubmissionReturned,
		SubmittedAt: &submittedAt, ReturnedAt: &submittedAt, WordCount: 90, LengthViolation: true,
	}

	repo.prompt.On("GetByID", ctx, mock.Anything, "p1").Return(listeningPrompt(), nil)
	repo.submission.On("List", ctx, mock.Anything, mock.MatchedBy(func(f repositories.SubmissionFilters) bool {
		return f.PromptID == "p1" && f.SortOrder == "asc"
	})).Return([]*models.Submission{listening, reviewed}, int64(2), nil)
	repo.feedback.On("GetLatestBySubmissions", ctx, mock.Anything, []string{"s1", "s2"}).Return(map[string]*models.Feedback{
		"s2": {ID: "f1", SubmissionID: "s2", OverallScore: 5.88, LengthPenaltyApplied: true},
	}, nil)

	var buf bytes.Buffer
	summary, err := svc.ExportResults(ctx, &models.ExportRequest{PromptID: "p1", RequestedBy: "admin-1"}, &buf)
	require.NoError(t, err)
	require.Len(t, repo.audit.entries, 1)
	assert.Equal(t, models.AuditResultsExported, repo.audit.entries[0].EventType)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, "results-p1-20250301-093000.xlsx", summary.FileName)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{resultsSheet}, f.GetSheetList())
	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, resultHeaders, rows[0])

	assert.Equal(t, "s1", rows[1][0])
	assert.Equal(t, "exam", rows[1][3])
	assert.Equal(t, "2025-02-28 14:00:00", rows[1][5])
	assert.Equal(t, "2", rows[1][8])
	assert.Equal(t, "3", rows[1][11])

	assert.Equal(t, "s2", rows[2][0])
	assert.Equal(t, "90", rows[2][6])
	assert.Equal(t, "TRUE", rows[2][7])
	assert.Equal(t, "5.88", rows[2][12])
	assert.Equal(t, "2025-02-28 14:00:00", rows[2][14])
}

func TestExportService_ExportResultsErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing prompt id", func(t *testing.T) {
		svc := NewExportService(newMockRepository(), testLogger(), validator.New())
		_, err := svc.ExportResults(ctx, &models.ExportRequest{}, &bytes.Buffer{})
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown prompt", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewExportService(repo, testLogger(), validator.New())
		repo.prompt.On("GetByID", ctx, mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.ExportResults(ctx, &models.ExportRequest{PromptID: "nope"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrPromptNotFound)
	})
}
