package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in scratch containers

	"subsonic-backend/config"
	_ "subsonic-backend/docs" // Important for Swagger
	v1 "subsonic-backend/internal/delivery/http/v1"
	"subsonic-backend/internal/domain"
	"subsonic-backend/internal/repository"
	"subsonic-backend/internal/usecase"
	"subsonic-backend/pkg/email"
	"subsonic-backend/pkg/logger"
	"subsonic-backend/pkg/redis"
	"subsonic-backend/pkg/security"
	"subsonic-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Subsonic Producciones API
// @version         1.0
// @description     Quote request intake for the Subsonic Producciones site.
// @host            localhost:8080
// @BasePath        /api
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Setup Loggers
	logger.Init()
	logger.Log.Info("Starting subsonic backend", "port", cfg.Port)

	env := "development"
	if cfg.Production {
		env = "production"
	}
	secLogger := security.InitSecurityLogger("subsonic-backend", env)
	defer func() { _ = secLogger.Sync() }()

	ctx := context.Background()

	// 3. Rate limit store (optional)
	rateLimitEnabled := cfg.RateLimitContactThreshold > 0
	if rateLimitEnabled && cfg.UpstashRedisURL != "" {
		if err := redis.Initialize(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
			logger.Log.Warn("Redis unavailable, rate limiting in memory", "error", err)
		}
	}
	defer func() { _ = redis.Close() }()

	// 4. Setup Storage (optional)
	var (
		quoteRepo   domain.QuoteRepository
		storageKind repository.Kind
	)
	if cfg.StorageConfigured() {
		repo, kind, closeStore, err := repository.NewQuoteRepository(ctx, cfg)
		defer closeStore()
		if err != nil {
			// Only reachable for unparseable settings; network errors surface per request.
			logger.Log.Error("Storage misconfigured, quotes will only be logged", "kind", kind, "error", err)
		} else {
			quoteRepo, storageKind = repo, kind
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if err := repo.Ping(pingCtx); err != nil {
				logger.Log.Warn("Quote storage not reachable yet, will retry per request", "kind", kind, "error", err)
			} else {
				logger.Log.Info("Quote storage ready", "kind", kind, "table", cfg.StorageTableName)
			}
			cancel()
		}
	}

	// 5. Setup Email Service (optional)
	var notifier domain.QuoteNotifier
	emailService, err := email.NewEmailService(cfg)
	if err != nil {
		logger.Log.Error("Email transport unavailable", "error", err)
	}
	if emailService.IsConfigured() {
		notifier = emailService
	} else {
		logger.Log.Warn("Email service not configured - quote notifications disabled")
	}

	// 6. Setup UseCases
	validate := validation.New()
	contactUC := usecase.NewContactUsecase(quoteRepo, notifier, validate, cfg.StorageTimeout)
	healthUC := usecase.NewHealthUsecase(quoteRepo, string(storageKind), notifier != nil, rateLimitEnabled)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: contactUC,
		HealthUC:  healthUC,
		Config:    cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
