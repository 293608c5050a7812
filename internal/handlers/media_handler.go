package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// MediaHandler serves recordings behind single-use signed links.
type MediaHandler struct {
	BaseHandler
	listeningService services.ListeningService
	mediaRoot        string
}

func NewMediaHandler(listeningService services.ListeningService, mediaRoot string, logger utils.Logger) *MediaHandler {
	return &MediaHandler{
		BaseHandler:      NewBaseHandler(logger),
		listeningService: listeningService,
		mediaRoot:        mediaRoot,
	}
}

// ServeAudio redeems the token and streams the recording. A token works once.
// @Summary Stream audio
// @Tags media
// @Produce audio/mpeg
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 410 {object} ErrorResponse
// @Router /media/audio [get]
func (h *MediaHandler) ServeAudio(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing token",
		})
		return
	}

	storagePath, err := h.listeningService.RedeemAudio(c.Request.Context(), token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	// Clean against a rooted path so the result cannot leave mediaRoot.
	full := filepath.Join(h.mediaRoot, filepath.Clean("/"+storagePath))
	c.Header("Cache-Control", "no-store")
	c.File(full)
}
