package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ListeningHandler struct {
	BaseHandler
	listeningService services.ListeningService
}

func NewListeningHandler(listeningService services.ListeningService, logger utils.Logger) *ListeningHandler {
	return &ListeningHandler{
		BaseHandler:      NewBaseHandler(logger),
		listeningService: listeningService,
	}
}

// GetTest returns a listening test without answer keys
// @Summary Get listening test
// @Tags listening
// @Produce json
// @Param id path string true "Prompt ID"
// @Success 200 {object} services.ListeningTestResponse
// @Failure 404 {object} ErrorResponse
// @Router /listening/{id} [get]
func (h *ListeningHandler) GetTest(c *gin.Context) {
	promptID, ok := pathID(c, "id")
	if !ok {
		return
	}

	test, err := h.listeningService.GetTest(c.Request.Context(), promptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// StartAttempt opens the caller's draft for the test, creating it if needed
// @Summary Start listening attempt
// @Tags listening
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body services.StartAttemptRequest true "Mode"
// @Success 200 {object} services.AttemptResponse
// @Router /listening/{id}/attempts [post]
func (h *ListeningHandler) StartAttempt(c *gin.Context) {
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

	attempt, err := h.listeningService.StartAttempt(c.Request.Context(), promptID, &req, userID)
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

// RecordPlayback counts a playback that reached the end
// @Summary Record playback
// @Tags listening
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} services.PlaybackResponse
// @Failure 422 {object} ErrorResponse
// @Router /listening/submissions/{id}/playback [post]
func (h *ListeningHandler) RecordPlayback(c *gin.Context) {
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.listeningService.RecordPlayback(c.Request.Context(), submissionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RevealTranscript returns the transcript once a practice attempt may see it
// @Summary Reveal transcript
// @Tags listening
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} services.TranscriptResponse
// @Failure 422 {object} ErrorResponse
// @Router /listening/submissions/{id}/transcript [get]
func (h *ListeningHandler) RevealTranscript(c *gin.Context) {
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.listeningService.RevealTranscript(c.Request.Context(), submissionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AudioURL issues a single-use link to the recording
// @Summary Get audio link
// @Tags listening
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} storage.SignedURL
// @Router /listening/submissions/{id}/audio [get]
func (h *ListeningHandler) AudioURL(c *gin.Context) {
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	signed, err := h.listeningService.AudioURL(c.Request.Context(), submissionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, signed)
}

// Autosave stores the current answers
// @Summary Autosave listening answers
// @Tags listening
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body services.AutosaveRequest true "Draft"
// @Success 200 {object} services.AutosaveResponse
// @Router /listening/submissions/{id}/draft [put]
func (h *ListeningHandler) Autosave(c *gin.Context) {
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

	resp, err := h.listeningService.Autosave(c.Request.Context(), submissionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Submit scores and finalizes the attempt
// @Summary Submit listening attempt
// @Tags listening
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body services.SubmitRequest true "Final answers"
// @Success 200 {object} services.SubmissionResult
// @Failure 409 {object} ErrorResponse
// @Router /listening/submissions/{id}/submit [post]
func (h *ListeningHandler) Submit(c *gin.Context) {
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

	h.LogRequest(c, "Submitting listening attempt", "submission_id", submissionID, "reason", req.Reason)

	result, err := h.listeningService.Submit(c.Request.Context(), submissionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
