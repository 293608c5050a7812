package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/practice-service/internal/middleware"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	authoringHandler *AuthoringHandler
	listeningHandler *ListeningHandler
	writingHandler   *WritingHandler
	reviewHandler    *ReviewHandler
	sessionHandler   *SessionHandler
	mediaHandler     *MediaHandler
	auth             *middleware.Auth
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	auth *middleware.Auth,
	mediaRoot string,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authoringHandler: NewAuthoringHandler(serviceManager.Authoring(), serviceManager.Export(), logger),
		listeningHandler: NewListeningHandler(serviceManager.Listening(), logger),
		writingHandler:   NewWritingHandler(serviceManager.Writing(), logger),
		reviewHandler:    NewReviewHandler(serviceManager.Review(), logger),
		sessionHandler:   NewSessionHandler(serviceManager.Sessions(), logger),
		mediaHandler:     NewMediaHandler(serviceManager.Listening(), mediaRoot, logger),
		auth:             auth,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	// Signed links carry their own authorization
	router.GET("/media/audio", hm.mediaHandler.ServeAudio)

	v1 := router.Group("/api/v1", hm.auth.Authenticate())
	{
		authoring := v1.Group("/authoring", middleware.RequireAdmin())
		{
			authoring.POST("/cloze/build", hm.authoringHandler.BuildCloze)
			authoring.POST("/cloze/suggest", hm.authoringHandler.SuggestGaps)
			authoring.POST("/listening", hm.authoringHandler.PublishListeningTest)
			authoring.POST("/writing", hm.authoringHandler.CreateWritingPrompt)
			authoring.POST("/prompts/:id/versions", hm.authoringHandler.CreatePromptVersion)
			authoring.GET("/prompts/:id/export", hm.authoringHandler.ExportResults)
		}

		listening := v1.Group("/listening")
		{
			listening.GET("/:id", hm.listeningHandler.GetTest)
			listening.POST("/:id/attempts", hm.listeningHandler.StartAttempt)
			listening.POST("/submissions/:id/playback", hm.listeningHandler.RecordPlayback)
			listening.GET("/submissions/:id/transcript", hm.listeningHandler.RevealTranscript)
			listening.GET("/submissions/:id/audio", hm.listeningHandler.AudioURL)
			listening.PUT("/submissions/:id/draft", hm.listeningHandler.Autosave)
			listening.POST("/submissions/:id/submit", hm.listeningHandler.Submit)
		}

		writing := v1.Group("/writing")
		{
			writing.GET("/:id", hm.writingHandler.GetPrompt)
			writing.POST("/:id/attempts", hm.writingHandler.StartAttempt)
			writing.PUT("/submissions/:id/draft", hm.writingHandler.Autosave)
			writing.POST("/submissions/:id/submit", hm.writingHandler.Submit)
			writing.GET("/submissions/:id/feedback", hm.writingHandler.LatestFeedback)

			// Hosted session
			writing.POST("/:id/session", hm.sessionHandler.Open)
			writing.GET("/:id/session", hm.sessionHandler.State)
			writing.DELETE("/:id/session", hm.sessionHandler.Close)
			writing.PUT("/:id/session/content", hm.sessionHandler.Edit)
			writing.PUT("/:id/session/mode", hm.sessionHandler.SetMode)
			writing.POST("/:id/session/start", hm.sessionHandler.Start)
			writing.POST("/:id/session/submit", hm.sessionHandler.Submit)
			writing.POST("/:id/session/new-attempt", hm.sessionHandler.NewAttempt)
		}

		review := v1.Group("/review", middleware.RequireAdmin())
		{
			review.GET("/queue", hm.reviewHandler.Queue)
			review.POST("/submissions/:id/feedback", hm.reviewHandler.ReturnFeedback)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "practice-service",
	})
}
