package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService, logger utils.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewService: reviewService,
	}
}

// Queue lists submissions waiting for a reviewer, oldest first
// @Summary Review queue
// @Tags review
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.ReviewQueueResponse
// @Router /review/queue [get]
func (h *ReviewHandler) Queue(c *gin.Context) {
	req := &services.ReviewQueueRequest{
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	}

	resp, err := h.reviewService.Queue(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ReturnFeedback scores a submission and returns it to the learner
// @Summary Return feedback
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param request body services.ReturnFeedbackRequest true "Rubric and comments"
// @Success 201 {object} services.FeedbackResponse
// @Failure 409 {object} ErrorResponse
// @Router /review/submissions/{id}/feedback [post]
func (h *ReviewHandler) ReturnFeedback(c *gin.Context) {
	submissionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ReturnFeedbackRequest
	if !h.bindJSON(c, &req) {
		return
	}
	reviewerID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Returning feedback", "submission_id", submissionID)

	fb, err := h.reviewService.ReturnFeedback(c.Request.Context(), submissionID, &req, reviewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fb)
}
