package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawpaw/lawpaw/internal/bootstrap"
	"github.com/lawpaw/lawpaw/internal/config"
	"github.com/lawpaw/lawpaw/internal/core/domain"
	"github.com/lawpaw/lawpaw/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("lawpaw-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, "worker")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		logger.Info("worker.metrics.listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker.metrics.error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker.subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeBatchRequested(ctx, func(handlerCtx context.Context, batchID string, req domain.BatchRequest) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		report, err := app.Processor.Process(processCtx, req)
		if err != nil {
			// Validation failures still close out the batch record.
			report = &domain.BatchReport{
				ID:         batchID,
				Status:     domain.BatchFailed,
				Error:      err.Error(),
				FinishedAt: time.Now().UTC(),
			}
			if finishErr := app.Batches.Finish(processCtx, report); finishErr != nil {
				logger.Error("batch.finish.failed", "batch_id", batchID, "error", finishErr)
			}
			return err
		}

		report.ID = batchID
		if err := app.Batches.Finish(processCtx, report); err != nil {
			logger.Error("batch.finish.failed", "batch_id", batchID, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
