package services

import (
	"context"
	"strings"
	"testing"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func writingPrompt() *models.Prompt {
	return &models.Prompt{
		ID:          "w1",
		Kind:        models.PromptWriting,
		TaskType:    models.TaskConceptDefinition,
		Title:       "Define scaffolding",
		PromptText:  "Define scaffolding.",
		IsPublished: true,
	}
}

func writingDraft() *models.Submission {
	return &models.Submission{
		ID:            "ws1",
		AttemptID:     "wa1",
		UserID:        "u1",
		PromptID:      "w1",
		AttemptNumber: 1,
		Mode:          models.ModeExam,
		Status:        models.SubmissionDraft,
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestWritingService_GetPromptUsesActiveVersion(t *testing.T) {
	repo := newMockRepository()
	svc := NewWritingService(repo, testPublisher(), testLogger(), validator.New())
	ctx := context.Background()

	p := writingPrompt()
	versionID := "v2"
	p.ActiveVersionID = &versionID
	repo.prompt.On("GetByID", ctx, mock.Anything, "w1").Return(p, nil)
	repo.prompt.On("GetVersion", ctx, mock.Anything, "v2").Return(&models.PromptVersion{
		ID:         "v2",
		PromptID:   "w1",
		PromptText: "Define scaffolding with an example.",
		WordMax:    intPtr(140),
	}, nil)

	resp, err := svc.GetPrompt(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "Define scaffolding with an example.", resp.PromptText)
	assert.Equal(t, 100, resp.WordMin)
	assert.Equal(t, 140, resp.WordMax)
	assert.Equal(t, 15*60, resp.TimerSeconds)
	require.NotNil(t, resp.VersionID)
	assert.Equal(t, "v2", *resp.VersionID)
}

func TestWritingService_GetPromptKindMismatch(t *testing.T) {
	repo := newMockRepository()
	svc := NewWritingService(repo, testPublisher(), testLogger(), validator.New())
	ctx := context.Background()

	repo.prompt.On("GetByID", ctx, mock.Anything, "p1").Return(listeningPrompt(), nil)

	_, err := svc.GetPrompt(ctx, "p1")
	assert.ErrorIs(t, err, ErrPromptKindMismatch)
}

func TestWritingService_Submit(t *testing.T) {
	tests := []struct {
		name      string
		words     int
		violation bool
	}{
		{"inside band", 110, false},
		{"too short", 80, true},
		{"too long", 130, true},
		{"upper edge", 125, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			pub := testPublisher()
			svc := NewWritingService(repo, pub, testLogger(), validator.New())
			ctx := context.Background()

			repo.submission.On("GetByID", ctx, mock.Anything, "ws1").Return(writingDraft(), nil)
			repo.prompt.On("GetByID", ctx, mock.Anything, "w1").Return(writingPrompt(), nil)
			var update repositories.SubmitUpdate
			repo.submission.On("MarkSubmitted", ctx, mock.Anything, "ws1", mock.AnythingOfType("repositories.SubmitUpdate")).
				Run(func(args mock.Arguments) { update = args.Get(3).(repositories.SubmitUpdate) }).
				Return(true, nil)

			result, err := svc.Submit(ctx, "ws1", &SubmitRequest{ContentText: words(tt.words), Seq: 3}, "u1")
			require.NoError(t, err)

			assert.Equal(t, tt.words, result.WordCount)
			assert.Equal(t, tt.violation, result.LengthViolation)
			assert.Equal(t, tt.violation, update.LengthViolation)
			assert.True(t, update.NeedsReview)

			published := pub.Published()
			require.Len(t, published, 2)
			assert.Equal(t, events.EventSubmissionSubmitted, published[0].Type)
			data := published[0].Data.(events.SubmissionSubmittedEvent)
			assert.Equal(t, "manual", data.Reason)
		})
	}
}

func TestWritingService_SubmitAfterSubmitted(t *testing.T) {
	repo := newMockRepository()
	svc := NewWritingService(repo, testPublisher(), testLogger(), validator.New())
	ctx := context.Background()

	done := writingDraft()
	done.Status = models.SubmissionSubmitted
	repo.submission.On("GetByID", ctx, mock.Anything, "ws1").Return(done, nil)

	_, err := svc.Submit(ctx, "ws1", &SubmitRequest{ContentText: "late"}, "u1")
	assert.ErrorIs(t, err, ErrSubmissionAlreadySubmitted)

	_, err = svc.Autosave(ctx, "ws1", &AutosaveRequest{ContentText: "late", Seq: 9}, "u1")
	assert.ErrorIs(t, err, ErrSubmissionNotDraft)
}

func TestWritingService_AutosaveAccepted(t *testing.T) {
	repo := newMockRepository()
	svc := NewWritingService(repo, testPublisher(), testLogger(), validator.New())
	ctx := context.Background()

	repo.submission.On("GetByID", ctx, mock.Anything, "ws1").Return(writingDraft(), nil)
	repo.submission.On("UpdateDraft", ctx, mock.Anything, "ws1", mock.MatchedBy(func(u repositories.DraftUpdate) bool {
		return u.Seq == 2 && u.WordCount == 3 && u.ContentText == "one two three"
	})).Return(true, nil)

	resp, err := svc.Autosave(ctx, "ws1", &AutosaveRequest{ContentText: "one two three", Seq: 2}, "u1")
	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	assert.Equal(t, 3, resp.WordCount)

	_, err = svc.Autosave(ctx, "ws1", &AutosaveRequest{ContentText: "x", Seq: 0}, "u1")
	assert.True(t, IsValidation(err))
}

func TestWritingService_LatestFeedback(t *testing.T) {
	repo := newMockRepository()
	svc := NewWritingService(repo, testPublisher(), testLogger(), validator.New())
	ctx := context.Background()

	repo.submission.On("GetByID", ctx, mock.Anything, "ws1").Return(writingDraft(), nil)
	repo.feedback.On("GetLatestBySubmission", ctx, mock.Anything, "ws1").
		Return(&models.Feedback{ID: "f2", SubmissionID: "ws1", OverallScore: 6.5, Rubric: []byte(`{"Grammar":7}`)}, nil).Once()
	repo.feedback.On("GetLatestBySubmission", ctx, mock.Anything, "ws1").Return(nil, gorm.ErrRecordNotFound)

	fb, err := svc.LatestFeedback(ctx, "ws1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "f2", fb.ID)
	assert.Equal(t, 7.0, fb.Rubric["Grammar"])

	_, err = svc.LatestFeedback(ctx, "ws1", "u1")
	assert.ErrorIs(t, err, ErrFeedbackNotFound)
	assert.True(t, IsNotFound(err))
}
