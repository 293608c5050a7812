package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockRepository runs transactions inline with a nil tx.
type MockRepository struct {
	prompt     *MockPromptRepository
	question   *MockQuestionRepository
	attempt    *MockAttemptRepository
	submission *MockSubmissionRepository
	feedback   *MockFeedbackRepository
	audit      *memoryAuditRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		prompt:     &MockPromptRepository{},
		question:   &MockQuestionRepository{},
		attempt:    &MockAttemptRepository{},
		submission: &MockSubmissionRepository{},
		feedback:   &MockFeedbackRepository{},
		audit:      &memoryAuditRepository{},
	}
}

func (m *MockRepository) Prompt() repositories.PromptRepository         { return m.prompt }
func (m *MockRepository) Question() repositories.QuestionRepository     { return m.question }
func (m *MockRepository) Attempt() repositories.AttemptRepository       { return m.attempt }
func (m *MockRepository) Submission() repositories.SubmissionRepository { return m.submission }
func (m *MockRepository) Feedback() repositories.FeedbackRepository     { return m.feedback }
func (m *MockRepository) Audit() repositories.AuditRepository           { return m.audit }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type MockPromptRepository struct {
	mock.Mock
}

func (m *MockPromptRepository) Create(ctx context.Context, tx *gorm.DB, prompt *models.Prompt) error {
	args := m.Called(ctx, tx, prompt)
	return args.Error(0)
}

func (m *MockPromptRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Prompt, error) {
	args := m.Called(ctx, tx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Prompt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPromptRepository) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Prompt, error) {
	args := m.Called(ctx, tx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Prompt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPromptRepository) Update(ctx context.Context, tx *gorm.DB, prompt *models.Prompt) error {
	args := m.Called(ctx, tx, prompt)
	return args.Error(0)
}

func (m *MockPromptRepository) CreateVersion(ctx context.Context, tx *gorm.DB, version *models.PromptVersion) error {
	args := m.Called(ctx, tx, version)
	return args.Error(0)
}

func (m *MockPromptRepository) GetVersion(ctx context.Context, tx *gorm.DB, id string) (*models.PromptVersion, error) {
	args := m.Called(ctx, tx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.PromptVersion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPromptRepository) SetActiveVersion(ctx context.Context, tx *gorm.DB, promptID, versionID string) error {
	args := m.Called(ctx, tx, promptID, versionID)
	return args.Error(0)
}

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	args := m.Called(ctx, tx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByPrompt(ctx context.Context, tx *gorm.DB, promptID string) ([]*models.Question, error) {
	args := m.Called(ctx, tx, promptID)
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) DeleteByPrompt(ctx context.Context, tx *gorm.DB, promptID string) error {
	args := m.Called(ctx, tx, promptID)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateAnswerKeys(ctx context.Context, tx *gorm.DB, keys []*models.AnswerKey) error {
	args := m.Called(ctx, tx, keys)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetAnswerKeys(ctx context.Context, tx *gorm.DB, questionIDs []string) (map[string]models.AnswerKey, error) {
	args := m.Called(ctx, tx, questionIDs)
	return args.Get(0).(map[string]models.AnswerKey), args.Error(1)
}

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	args := m.Called(ctx, tx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Attempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) GetNextAttemptNumber(ctx context.Context, tx *gorm.DB, userID, promptID string, mode models.AttemptMode) (int, error) {
	args := m.Called(ctx, tx, userID, promptID, mode)
	return args.Int(0), args.Error(1)
}

type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	args := m.Called(ctx, tx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Submission, error) {
	args := m.Called(ctx, tx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) GetOpenDraft(ctx context.Context, tx *gorm.DB, userID, promptID string, mode models.AttemptMode) (*models.Submission, error) {
	args := m.Called(ctx, tx, userID, promptID, mode)
	if v := args.Get(0); v != nil {
		return v.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) UpdateDraft(ctx context.Context, tx *gorm.DB, id string, update repositories.DraftUpdate) (bool, error) {
	args := m.Called(ctx, tx, id, update)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionRepository) MarkSubmitted(ctx context.Context, tx *gorm.DB, id string, update repositories.SubmitUpdate) (bool, error) {
	args := m.Called(ctx, tx, id, update)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionRepository) MarkReturned(ctx context.Context, tx *gorm.DB, id string, returnedAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, id, returnedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionRepository) IncrementPlayCount(ctx context.Context, tx *gorm.DB, id string, maxPlays int) (bool, error) {
	args := m.Called(ctx, tx, id, maxPlays)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionRepository) ListReviewQueue(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, tx, limit, offset)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error {
	args := m.Called(ctx, tx, feedback)
	return args.Error(0)
}

func (m *MockFeedbackRepository) GetLatestBySubmission(ctx context.Context, tx *gorm.DB, submissionID string) (*models.Feedback, error) {
	args := m.Called(ctx, tx, submissionID)
	if v := args.Get(0); v != nil {
		return v.(*models.Feedback), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFeedbackRepository) GetLatestBySubmissions(ctx context.Context, tx *gorm.DB, submissionIDs []string) (map[string]*models.Feedback, error) {
	args := m.Called(ctx, tx, submissionIDs)
	return args.Get(0).(map[string]*models.Feedback), args.Error(1)
}

// memoryAuditRepository records entries so tests can assert on them.
type memoryAuditRepository struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (m *memoryAuditRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryAuditRepository) ListByTarget(ctx context.Context, tx *gorm.DB, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.TargetType == targetType && e.TargetID == targetID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPublisher() *events.MemoryPublisher {
	return events.NewMemoryPublisher(testLogger())
}

func intPtr(i int) *int { return &i }
