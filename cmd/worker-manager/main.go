// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"leadgenius/internal/app"
	"leadgenius/internal/common/camunda"
	"leadgenius/internal/common/config"
	"leadgenius/internal/common/logger"
	"leadgenius/pkg/registry"

	// Lead Workers (4)
	al "leadgenius/internal/workers/leads/analyze-lead"
	ews "leadgenius/internal/workers/leads/enrich-web-search"
	so "leadgenius/internal/workers/leads/score-opportunity"
	sl "leadgenius/internal/workers/leads/search-leads"

	// Outreach Workers (2)
	fe "leadgenius/internal/workers/outreach/find-email"
	no "leadgenius/internal/workers/outreach/notify-opportunity"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := logger.New("info", "console")
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	if !cfg.Camunda.Enabled {
		zapLog.Fatal("camunda is disabled, set camunda.enabled to run workers")
	}

	ctx := context.Background()
	container, err := app.New(ctx, cfg, "worker-manager", zapLog)
	if err != nil {
		zapLog.Fatal("service setup failed", zap.Error(err))
	}
	defer container.Close()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	client := zeebe.GetClient()
	var workers []worker.JobWorker
	register := func(taskType string, handler camunda.JobHandler) {
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, zapLog); w != nil {
			workers = append(workers, w)
		}
	}

	timeout := func(taskType string, fallback time.Duration) time.Duration {
		if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
			return config.GetDuration(wcfg.Timeout)
		}
		return fallback
	}

	// --- 1. Lead Workers (4) ---
	register(sl.TaskType, sl.NewHandler(
		&sl.Config{Timeout: timeout(sl.TaskType, sl.LoadConfig().Timeout)},
		container.Leads,
		&searchLeadsLoggerAdapter{log},
	))

	// notify-opportunity publishes lead events in the workflow.
	register(al.TaskType, al.NewHandler(
		&al.Config{Timeout: timeout(al.TaskType, al.LoadConfig().Timeout)},
		container.Leads.WithoutEvents(),
		&analyzeLeadLoggerAdapter{log},
	))

	register(ews.TaskType, ews.NewHandler(
		&ews.Config{Timeout: timeout(ews.TaskType, ews.LoadConfig().Timeout)},
		container.Search,
		&enrichWebSearchLoggerAdapter{log},
	))

	register(so.TaskType, so.NewHandler(
		&so.Config{Timeout: timeout(so.TaskType, so.LoadConfig().Timeout)},
		container.Gemini,
		container.Usage,
		&scoreOpportunityLoggerAdapter{log},
	))

	// --- 2. Outreach Workers (2) ---
	register(fe.TaskType, fe.NewHandler(
		&fe.Config{Timeout: timeout(fe.TaskType, fe.LoadConfig().Timeout)},
		container.Emails,
		&findEmailLoggerAdapter{log},
	))

	register(no.TaskType, no.NewHandler(
		&no.Config{Timeout: timeout(no.TaskType, no.LoadConfig().Timeout)},
		container.Notifier,
		&notifyOpportunityLoggerAdapter{log},
	))

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	catalog := registry.Default()
	for _, taskType := range catalog.TaskTypes() {
		if _, ok := cfg.Workers[taskType]; !ok {
			zapLog.Info("worker not configured, running with defaults", zap.String("taskType", taskType))
		}
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(ctx); err != nil {
			log.Warn("readiness check failed", map[string]interface{}{"error": err.Error()})
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(catalog)
	})
	mux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// Logger adapters bridge logger.Logger to each worker's narrow Logger interface.

type searchLeadsLoggerAdapter struct {
	logger.Logger
}

func (a *searchLeadsLoggerAdapter) With(fields map[string]interface{}) sl.Logger {
	return &searchLeadsLoggerAdapter{a.Logger.With(fields)}
}

type analyzeLeadLoggerAdapter struct {
	logger.Logger
}

func (a *analyzeLeadLoggerAdapter) With(fields map[string]interface{}) al.Logger {
	return &analyzeLeadLoggerAdapter{a.Logger.With(fields)}
}

type enrichWebSearchLoggerAdapter struct {
	logger.Logger
}

func (a *enrichWebSearchLoggerAdapter) With(fields map[string]interface{}) ews.Logger {
	return &enrichWebSearchLoggerAdapter{a.Logger.With(fields)}
}

type scoreOpportunityLoggerAdapter struct {
	logger.Logger
}

func (a *scoreOpportunityLoggerAdapter) With(fields map[string]interface{}) so.Logger {
	return &scoreOpportunityLoggerAdapter{a.Logger.With(fields)}
}

type findEmailLoggerAdapter struct {
	logger.Logger
}

func (a *findEmailLoggerAdapter) With(fields map[string]interface{}) fe.Logger {
	return &findEmailLoggerAdapter{a.Logger.With(fields)}
}

type notifyOpportunityLoggerAdapter struct {
	logger.Logger
}

func (a *notifyOpportunityLoggerAdapter) With(fields map[string]interface{}) no.Logger {
	return &notifyOpportunityLoggerAdapter{a.Logger.With(fields)}
}
