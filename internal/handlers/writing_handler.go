package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type WritingHandler struct {
	BaseHandler
	writingService services.WritingService
}

func NewWritingHandler(writingService services.WritingService, logger utils.Logger) *WritingHandler {
	return &WritingHandler{
		BaseHandler:    NewBaseHandler(logger),
		writingService: writingService,
	}
}

// GetPrompt returns a writing prompt with its effective word band and timer
// @Summary Get writing prompt
// @Tags writing
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 200 {object} services.WritingPromptResponse
// @Router /writing/{id} [get]
func (h *WritingHandler) GetPrompt(c *gin.Context) {
	promptID, ok := pathID(c, "id")
	if !ok {
		return
	}

	prompt, err := h.writingService.GetPrompt(c.Request.Context(), promptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prompt)
}

// StartAttempt opens the caller's draft for the prompt, creating it if needed
// @Summary Start writing attempt
// @Tags writing
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body services.StartAttemptRequest true "Mode"
// @Success 200 {object} services.AttemptResponse
// @Router /writing/{id}/attempts [post]
func (h *WritingHandler) StartAttempt(c *gin.Context) {
	promptID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.StartAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	attempt, err := h.writingService.StartAttempt(c.Request.Context(), promptID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, attempt)
}

// Autosave stores the current text
// @Summary Autosave writing draft
// @Tags writing
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body services.AutosaveRequest true "Draft"
// @Success 200 {object} services.AutosaveResponse
// @Router /writing/submissions/{id}/draft [put]
func (h *WritingHandler) Autosave(c *gin.Context) {
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AutosaveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.writingService.Autosave(c.Request.Context(), submissionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Submit finalizes the text and queues it for review
// @Summary Submit writing attempt
// @Tags writing
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body services.SubmitRequest true "Final text"
// @Success 200 {object} services.SubmissionResult
// @Failure 409 {object} ErrorResponse
// @Router /writing/submissions/{id}/submit [post]
func (h *WritingHandler) Submit(c *gin.Context) {
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.SubmitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting writing attempt", "submission_id", submissionID, "reason", req.Reason)

	result, err := h.writingService.Submit(c.Request.Context(), submissionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LatestFeedback returns the newest reviewer feedback for a submission
// @Summary Get feedback
// @Tags writing
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} services.FeedbackResponse
// @Failure 404 {object} ErrorResponse
// @Router /writing/submissions/{id}/feedback [get]
func (h *WritingHandler) LatestFeedback(c *gin.Context) {
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	fb, err := h.writingService.LatestFeedback(c.Request.Context(), submissionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, fb)
}
