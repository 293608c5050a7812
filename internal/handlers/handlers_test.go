package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/SAP-F-2025/practice-service/internal/middleware"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/session"
	"github.com/SAP-F-2025/practice-service/internal/storage"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockListeningService struct {
	mock.Mock
}

func (m *MockListeningService) GetTest(ctx context.Context, promptID string) (*services.ListeningTestResponse, error) {
	args := m.Called(ctx, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ListeningTestResponse), args.Error(1)
}

func (m *MockListeningService) StartAttempt(ctx context.Context, promptID string, req *services.StartAttemptRequest, userID string) (*services.AttemptResponse, error) {
	args := m.Called(ctx, promptID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AttemptResponse), args.Error(1)
}

func (m *MockListeningService) RecordPlayback(ctx context.Context, submissionID, userID string) (*services.PlaybackResponse, error) {
	args := m.Called(ctx, submissionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PlaybackResponse), args.Error(1)
}

func (m *MockListeningService) RevealTranscript(ctx context.Context, submissionID, userID string) (*services.TranscriptResponse, error) {
	args := m.Called(ctx, submissionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TranscriptResponse), args.Error(1)
}

func (m *MockListeningService) AudioURL(ctx context.Context, submissionID, userID string) (*storage.SignedURL, error) {
	args := m.Called(ctx, submissionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SignedURL), args.Error(1)
}

func (m *MockListeningService) RedeemAudio(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockListeningService) Autosave(ctx context.Context, submissionID string, req *services.AutosaveRequest, userID string) (*services.AutosaveResponse, error) {
	args := m.Called(ctx, submissionID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AutosaveResponse), args.Error(1)
}

func (m *MockListeningService) Submit(ctx context.Context, submissionID string, req *services.SubmitRequest, userID string) (*services.SubmissionResult, error) {
	args := m.Called(ctx, submissionID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmissionResult), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Queue(ctx context.Context, req *services.ReviewQueueRequest) (*services.ReviewQueueResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReviewQueueResponse), args.Error(1)
}

func (m *MockReviewService) ReturnFeedback(ctx context.Context, submissionID string, req *services.ReturnFeedbackRequest, reviewerID string) (*services.FeedbackResponse, error) {
	args := m.Called(ctx, submissionID, req, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FeedbackResponse), args.Error(1)
}

func testLogger() utils.Logger {
	return utils.NewDefaultLogger()
}

// withUser stands in for the auth middleware.
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextUserID, userID)
		}
		c.Next()
	}
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ValidationErrors{{Field: "mode", Message: "invalid"}}, http.StatusBadRequest},
		{services.ErrClozeTemplateRequired, http.StatusBadRequest},
		{services.ErrPromptNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrSubmissionNotFound), http.StatusNotFound},
		{services.NewPermissionError("u2", "s1", "submission", "read", "not owner"), http.StatusForbidden},
		{services.ErrAudioURLUsed, http.StatusGone},
		{services.ErrSubmissionAlreadySubmitted, http.StatusConflict},
		{session.ErrLocked, http.StatusConflict},
		{services.ErrPlayLimitReached, http.StatusUnprocessableEntity},
		{services.NewBusinessRuleError("word_band", "too short", nil), http.StatusUnprocessableEntity},
		{errors.New("database is down"), http.StatusInternalServerError},
	}

	h := NewBaseHandler(testLogger())
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestListeningHandler_StartAttempt(t *testing.T) {
	svc := &MockListeningService{}
	h := NewListeningHandler(svc, testLogger())
	r := newEngine()
	r.POST("/listening/:id/attempts", withUser("u1"), h.StartAttempt)

	req := &services.StartAttemptRequest{Mode: models.ModeExam}
	svc.On("StartAttempt", mock.Anything, "p1", req, "u1").Return(&services.AttemptResponse{
		AttemptRef: session.AttemptRef{AttemptID: "a1", SubmissionID: "s1", AttemptNumber: 1},
		Mode:       models.ModeExam,
	}, nil).Once()
	svc.On("StartAttempt", mock.Anything, "p1", req, "u1").Return(&services.AttemptResponse{
		AttemptRef: session.AttemptRef{AttemptID: "a1", SubmissionID: "s1", AttemptNumber: 1},
		Resumed:    true,
	}, nil).Once()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/listening/p1/attempts", jsonBody(t, req)))
	require.Equal(t, http.StatusCreated, w.Code)

	var body services.AttemptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "s1", body.SubmissionID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/listening/p1/attempts", jsonBody(t, req)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/listening/p1/attempts", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "StartAttempt", 2)
}

func TestListeningHandler_SubmitTwice(t *testing.T) {
	svc := &MockListeningService{}
	h := NewListeningHandler(svc, testLogger())
	r := newEngine()
	r.POST("/listening/submissions/:id/submit", withUser("u1"), h.Submit)

	svc.On("Submit", mock.Anything, "s1", mock.Anything, "u1").Return(nil, services.ErrSubmissionAlreadySubmitted)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/listening/submissions/s1/submit",
		jsonBody(t, services.SubmitRequest{Seq: 2})))
	assert.Equal(t, http.StatusConflict, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "conflict", body.Code)
}

func TestListeningHandler_RequiresUser(t *testing.T) {
	svc := &MockListeningService{}
	h := NewListeningHandler(svc, testLogger())
	r := newEngine()
	r.POST("/listening/submissions/:id/playback", withUser(""), h.RecordPlayback)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/listening/submissions/s1/playback", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "RecordPlayback", mock.Anything, mock.Anything, mock.Anything)
}

func TestMediaHandler_ServeAudio(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "audio"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "audio", "talk.mp3"), []byte("ID3audio"), 0o644))

	svc := &MockListeningService{}
	h := NewMediaHandler(svc, root, testLogger())
	r := newEngine()
	r.GET("/media/audio", h.ServeAudio)

	svc.On("RedeemAudio", mock.Anything, "fresh").Return("audio/talk.mp3", nil).Once()
	svc.On("RedeemAudio", mock.Anything, "fresh").Return("", services.ErrAudioURLUsed)
	svc.On("RedeemAudio", mock.Anything, "escape").Return("../../etc/passwd", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/audio?token=fresh", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ID3audio", w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/audio?token=fresh", nil))
	assert.Equal(t, http.StatusGone, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/audio?token=escape", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/audio", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler(t *testing.T) {
	svc := &MockReviewService{}
	h := NewReviewHandler(svc, testLogger())
	r := newEngine()
	r.GET("/review/queue", withUser("admin-1"), h.Queue)
	r.POST("/review/submissions/:id/feedback", withUser("admin-1"), h.ReturnFeedback)

	svc.On("Queue", mock.Anything, &services.ReviewQueueRequest{Limit: 5, Offset: 0}).
		Return(&services.ReviewQueueResponse{Total: 0, Limit: 5}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/review/queue?limit=5&offset=x", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	fbReq := services.ReturnFeedbackRequest{Rubric: map[string]float64{
		models.CriterionTaskAchievement: 6, models.CriterionCoherence: 6,
		models.CriterionLexical: 6, models.CriterionGrammar: 6,
	}}
	svc.On("ReturnFeedback", mock.Anything, "s1", &fbReq, "admin-1").
		Return(&services.FeedbackResponse{ID: "f1", SubmissionID: "s1", OverallScore: 6}, nil)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/review/submissions/s1/feedback", jsonBody(t, fbReq)))
	require.Equal(t, http.StatusCreated, w.Code)

	var fb services.FeedbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fb))
	assert.Equal(t, 6.0, fb.OverallScore)
}

func TestHealthCheck(t *testing.T) {
	r := newEngine()
	r.GET("/health", HealthCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"practice-service"}`, w.Body.String())
}
