package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/lawpaw/lawpaw/internal/adapters/http"
	"github.com/lawpaw/lawpaw/internal/bootstrap"
	"github.com/lawpaw/lawpaw/internal/config"
	"github.com/lawpaw/lawpaw/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("lawpaw-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, "api")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.Processor,
		app.Documents,
		app.Batches,
		app.Queue,
		logger,
		httpadapter.Options{MaxInFlight: cfg.APIMaxInFlight},
	).Handler()

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("/metrics", app.Metrics.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: mux,
		// Batches run long; the write timeout has to cover a full sync run.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api.listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api.shutdown.error", "error", err)
	}
}
