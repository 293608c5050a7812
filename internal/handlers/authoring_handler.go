package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/middleware"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AuthoringHandler struct {
	BaseHandler
	authoringService services.AuthoringService
	exportService    services.ExportService
}

func NewAuthoringHandler(
	authoringService services.AuthoringService,
	exportService services.ExportService,
	logger utils.Logger,
) *AuthoringHandler {
	return &AuthoringHandler{
		BaseHandler:      NewBaseHandler(logger),
		authoringService: authoringService,
		exportService:    exportService,
	}
}

// BuildCloze renders a cloze template from the selected transcript spans
// @Summary Build cloze template
// @Tags authoring
// @Accept json
// @Produce json
// @Param request body services.BuildClozeRequest true "Transcript and spans"
// @Success 200 {object} cloze.Template
// @Failure 400 {object} ErrorResponse
// @Router /authoring/cloze/build [post]
func (h *AuthoringHandler) BuildCloze(c *gin.Context) {
	var req services.BuildClozeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	template, err := h.authoringService.BuildCloze(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// SuggestGaps proposes gap spans for a transcript
// @Summary Suggest cloze gaps
// @Tags authoring
// @Accept json
// @Produce json
// @Param request body services.SuggestGapsRequest true "Transcript"
// @Success 200 {object} services.SuggestGapsResponse
// @Failure 400 {object} ErrorResponse
// @Router /authoring/cloze/suggest [post]
func (h *AuthoringHandler) SuggestGaps(c *gin.Context) {
	var req services.SuggestGapsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.authoringService.SuggestGaps(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PublishListeningTest stores a listening test with its questions and keys
// @Summary Create listening test
// @Tags authoring
// @Accept json
// @Produce json
// @Param request body services.CreateListeningTestRequest true "Listening test"
// @Success 201 {object} models.Prompt
// @Failure 400 {object} ErrorResponse
// @Router /authoring/listening [post]
func (h *AuthoringHandler) PublishListeningTest(c *gin.Context) {
	var req services.CreateListeningTestRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Creating listening test", "title", req.Title, "questions", len(req.Questions))

	prompt, err := h.authoringService.PublishListeningTest(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, prompt)
}

// CreateWritingPrompt stores a writing prompt
// @Summary Create writing prompt
// @Tags authoring
// @Accept json
// @Produce json
// @Param request body services.CreateWritingPromptRequest true "Writing prompt"
// @Success 201 {object} models.Prompt
// @Failure 400 {object} ErrorResponse
// @Router /authoring/writing [post]
func (h *AuthoringHandler) CreateWritingPrompt(c *gin.Context) {
	var req services.CreateWritingPromptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	prompt, err := h.authoringService.CreateWritingPrompt(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, prompt)
}

// CreatePromptVersion adds a version to a prompt and makes it active
// @Summary Create prompt version
// @Tags authoring
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body services.CreatePromptVersionRequest true "Version"
// @Success 201 {object} models.PromptVersion
// @Failure 404 {object} ErrorResponse
// @Router /authoring/prompts/{id}/versions [post]
func (h *AuthoringHandler) CreatePromptVersion(c *gin.Context) {
	promptID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.CreatePromptVersionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	version, err := h.authoringService.CreatePromptVersion(c.Request.Context(), promptID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

// ExportResults downloads the results workbook for a prompt
// @Summary Export results
// @Tags authoring
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Prompt ID"
// @Param status query string false "Submission status"
// @Param mode query string false "Attempt mode"
// @Param from query string false "RFC3339 lower bound on submitted_at"
// @Param to query string false "RFC3339 upper bound on submitted_at"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /authoring/prompts/{id}/export [get]
func (h *AuthoringHandler) ExportResults(c *gin.Context) {
	promptID, ok := pathID(c, "id")
	if !ok {
		return
	}

	req := &models.ExportRequest{
		PromptID:    promptID,
		Format:      "xlsx",
		RequestedBy: c.GetString(middleware.ContextUserID),
	}
	if status := c.Query("status"); status != "" {
		s := models.SubmissionStatus(status)
		req.Status = &s
	}
	if mode := c.Query("mode"); mode != "" {
		m := models.AttemptMode(mode)
		req.Mode = &m
	}
	for param, dst := range map[string]**time.Time{"from": &req.DateFrom, "to": &req.DateTo} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid " + param,
				Details: err.Error(),
			})
			return
		}
		*dst = &t
	}

	h.LogRequest(c, "Exporting results", "prompt_id", promptID)

	var buf bytes.Buffer
	summary, err := h.exportService.ExportResults(c.Request.Context(), req, &buf)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+summary.FileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
