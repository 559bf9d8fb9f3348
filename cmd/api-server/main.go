// cmd/api-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leadgenius/internal/api"
	"leadgenius/internal/app"
	"leadgenius/internal/common/config"
	"leadgenius/internal/common/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := logger.New("info", "console")
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting API server...",
		zap.String("environment", cfg.App.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	sentryEnabled := false
	if cfg.Monitoring.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Monitoring.SentryDSN,
			Environment: cfg.App.Environment,
			Release:     cfg.App.Version,
		}); err != nil {
			zapLog.Warn("sentry init failed", zap.Error(err))
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	container, err := app.New(ctx, cfg, "api-server", zapLog)
	if err != nil {
		zapLog.Fatal("service setup failed", zap.Error(err))
	}
	defer container.Close()

	health := &api.HealthHandler{
		Maps:   container.Places,
		Gemini: container.Gemini,
		Search: container.Search,
		Cache:  container.Cache,
		Usage:  container.Usage,
		Logger: log,
	}
	services := api.Services{
		Leads:  container.Leads,
		Emails: container.Emails,
		Health: health,
	}
	if container.Postgres != nil {
		health.Database = container.Postgres
		services.Organizations = container.Organizations
	}

	router := api.NewRouter(api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		BodyLimitBytes: cfg.Server.BodyLimitBytes,
		Auth: api.AuthConfig{
			Enabled:   cfg.Auth.Enabled,
			Secret:    cfg.Auth.JWTSecret,
			Issuer:    cfg.Auth.Issuer,
			DevUserID: cfg.Auth.DevUserID,
		},
		SentryEnabled: sentryEnabled,
	}, services, log)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("API server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("API server shutdown failed", zap.Error(err))
	}
	zapLog.Info("API server stopped")
}
