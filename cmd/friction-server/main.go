// cmd/friction-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"export-friction/internal/api"
	"export-friction/internal/common/camunda"
	"export-friction/internal/common/config"
	"export-friction/internal/common/logger"
	"export-friction/internal/common/metrics"
	"export-friction/internal/common/observability"
	"export-friction/internal/friction"
	"export-friction/internal/scoring"
	cef "export-friction/internal/workers/friction/calculate-export-friction"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting friction server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogSource", cfg.Catalog.Source),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Reference data ---
	b, err := connectBackends(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("catalog backend unavailable", zap.Error(err))
	}
	defer b.close()

	store, err := loadCatalog(ctx, cfg, b, log)
	if err != nil {
		zapLog.Fatal("reference data load failed", zap.Error(err))
	}
	metrics.SetCatalogEntries(len(store.Products()), len(store.Countries()))

	service := friction.NewService(scoring.NewEngine(store), obs, log)

	handler := api.NewHandler(service, store, log)
	for name, check := range b.readinessChecks() {
		handler.AddReadinessCheck(name, check)
	}

	// --- Zeebe worker ---
	var (
		zeebe  *camunda.Client
		worker *camunda.Worker
	)
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, cef.TaskType) {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, cfg.Catalog.ConnectRetries, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		handler.AddReadinessCheck("zeebe", zeebe.HealthCheck)

		wcfg := config.GetWorkerConfig(cfg, cef.TaskType)
		jobHandler := cef.NewHandler(&cef.Config{Timeout: config.GetDuration(wcfg.Timeout)}, service, log)
		worker = camunda.NewWorker(zeebe.GetClient(), cef.TaskType, wcfg, jobHandler.Handle, log)
	} else {
		zapLog.Info("zeebe worker disabled", zap.String("taskType", cef.TaskType))
	}

	// --- HTTP server ---
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if worker != nil {
		worker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("friction server stopped")
}
