package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/cloze"
	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/handlers"
	"github.com/SAP-F-2025/practice-service/internal/middleware"
	"github.com/SAP-F-2025/practice-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/practice-service/internal/services"
	"github.com/SAP-F-2025/practice-service/internal/storage"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/SAP-F-2025/practice-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)
	logger.Info("Starting practice service", "environment", cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := pkg.MigrateDatabase(db); err != nil {
		log.Fatalf("%v", err)
	}
	logger.Info("Database ready")

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	publisher, err := cfg.Events.NewPublisher(slogger)
	if err != nil {
		log.Fatalf("failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	suggest := cloze.DefaultSuggestOptions()
	suggest.Limit = cfg.Session.SuggestLimit
	suggest.MinLength = cfg.Session.SuggestMinLength

	serviceManager := services.NewServiceManager(
		postgres.NewRepository(db),
		publisher,
		services.ManagerConfig{
			Suggest:          suggest,
			MaxPlays:         cfg.Session.MaxPlays,
			AutosaveDebounce: cfg.Session.AutosaveDebounce,
			Signer:           storage.NewAudioSigner(cfg.Audio.SigningSecret, cfg.Audio.URLTTL, cfg.Audio.BaseURL, redisClient),
			Drafts:           cache.NewDraftCache(redisClient, cfg.Session.DraftCacheTTL, slogger),
		},
		slogger,
		validator.New(),
	)

	auth := middleware.NewAuth(middleware.NewCasdoorParser(cfg.Auth), cfg.Auth.AdminEmails, slogger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	handlers.NewHandlerManager(serviceManager, auth, cfg.Audio.MediaRoot, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.LogError(err, "Graceful shutdown failed")
		}
	}()

	logger.Info("Practice service ready", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
