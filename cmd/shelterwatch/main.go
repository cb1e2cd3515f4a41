package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/shelterwatch/shelterwatch/internal/alerting"
	"github.com/shelterwatch/shelterwatch/internal/api"
	"github.com/shelterwatch/shelterwatch/internal/config"
	"github.com/shelterwatch/shelterwatch/internal/feed"
	"github.com/shelterwatch/shelterwatch/internal/logging"
	"github.com/shelterwatch/shelterwatch/internal/monitor"
	"github.com/shelterwatch/shelterwatch/internal/notify"
	"github.com/shelterwatch/shelterwatch/internal/observability"
	"github.com/shelterwatch/shelterwatch/internal/repository"
	"github.com/shelterwatch/shelterwatch/internal/verification"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metrics := observability.NewMetrics()

	hazardFeed := feed.NewAmbeeClient(cfg.Feed.URL, cfg.Feed.APIKey, cfg.Feed.Timeout)
	sms := notify.NewTwilioSMS(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, cfg.SMS.Timeout)
	email := notify.NewResendEmail(cfg.Email.APIKey, cfg.Email.FromAddress)

	dispatcher := notify.NewDispatcher(sms, email, metrics)
	orchestrator := alerting.NewOrchestrator(hazardFeed, db, dispatcher, metrics, cfg.Alerting.WorkerCount)
	verifier := verification.NewService(db, sms, email, cfg.Verification.CodeTTL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic disaster checks; webhook-driven deployments leave this off
	var scheduler *monitor.Scheduler
	if cfg.Monitor.Enabled {
		scheduler = monitor.NewScheduler(orchestrator, cfg.Monitor.Interval)
		scheduler.Start(ctx)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Webhook-Secret"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(db, orchestrator, verifier, cfg.Server.WebhookSecret)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
