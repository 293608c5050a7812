package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the hosted writing sessions.
type SessionHandler struct {
	BaseHandler
	registry *services.SessionRegistry
}

func NewSessionHandler(registry *services.SessionRegistry, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		registry:    registry,
	}
}

// Open starts or resumes the hosted session for the prompt
// @Summary Open writing session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body services.OpenSessionRequest true "Mode"
// @Success 200 {object} services.SessionResponse
// @Router /writing/{id}/session [post]
func (h *SessionHandler) Open(c *gin.Context) {
	promptID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.OpenSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	resp, err := h.registry.Open(c.Request.Context(), promptID, &req, userID)
	h.respond(c, resp, err)
}

// State returns the session snapshot and current text
// @Router /writing/{id}/session [get]
func (h *SessionHandler) State(c *gin.Context) {
	promptID, userID, ok := h.params(c)
	if !ok {
		return
	}
	resp, err := h.registry.State(c.Request.Context(), promptID, userID)
	h.respond(c, resp, err)
}

// Edit replaces the text; the first edit creates the attempt
// @Router /writing/{id}/session/content [put]
func (h *SessionHandler) Edit(c *gin.Context) {
	promptID, userID, ok := h.params(c)
	if !ok {
		return
	}
	var req services.SessionContentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.registry.Edit(c.Request.Context(), promptID, &req, userID)
	h.respond(c, resp, err)
}

// Start begins the attempt and, in exam mode, the countdown
// @Router /writing/{id}/session/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	promptID, userID, ok := h.params(c)
	if !ok {
		return
	}
	resp, err := h.registry.Start(c.Request.Context(), promptID, userID)
	h.respond(c, resp, err)
}

// Submit submits the session manually
// @Router /writing/{id}/session/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	promptID, userID, ok := h.params(c)
	if !ok {
		return
	}
	resp, err := h.registry.Submit(c.Request.Context(), promptID, userID)
	h.respond(c, resp, err)
}

// SetMode switches between practice and exam
// @Router /writing/{id}/session/mode [put]
func (h *SessionHandler) SetMode(c *gin.Context) {
	promptID, userID, ok := h.params(c)
	if !ok {
		return
	}
	var req services.SessionModeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.registry.SetMode(c.Request.Context(), promptID, &req, userID)
	h.respond(c, resp, err)
}

// NewAttempt resets the session for the next attempt
// @Router /writing/{id}/session/new-attempt [post]
func (h *SessionHandler) NewAttempt(c *gin.Context) {
	promptID, userID, ok := h.params(c)
	if !ok {
		return
	}
	resp, err := h.registry.NewAttempt(c.Request.Context(), promptID, userID)
	h.respond(c, resp, err)
}

// Close drops the hosted session
// @Router /writing/{id}/session [delete]
func (h *SessionHandler) Close(c *gin.Context) {
	promptID, userID, ok := h.params(c)
	if !ok {
		return
	}
	h.registry.Close(promptID, userID)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) params(c *gin.Context) (string, string, bool) {
	promptID, ok := pathID(c, "id")
	if !ok {
		return "", "", false
	}
	userID, ok := h.userID(c)
	return promptID, userID, ok
}

func (h *SessionHandler) respond(c *gin.Context, resp *services.SessionResponse, err error) {
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
