// Package bootstrap assembles the pipeline from configuration: database,
// queue, external tools, inference client and the batch use case.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lawpaw/lawpaw/internal/config"
	"github.com/lawpaw/lawpaw/internal/core/ports"
	"github.com/lawpaw/lawpaw/internal/core/usecase"
	"github.com/lawpaw/lawpaw/internal/infrastructure/cmdrunner"
	"github.com/lawpaw/lawpaw/internal/infrastructure/llm/openai"
	"github.com/lawpaw/lawpaw/internal/infrastructure/ocr/tesseract"
	"github.com/lawpaw/lawpaw/internal/infrastructure/queue/nats"
	"github.com/lawpaw/lawpaw/internal/infrastructure/report"
	"github.com/lawpaw/lawpaw/internal/infrastructure/repository/postgres"
	"github.com/lawpaw/lawpaw/internal/infrastructure/resilience"
	"github.com/lawpaw/lawpaw/internal/infrastructure/scanner/bulkextract"
	"github.com/lawpaw/lawpaw/internal/infrastructure/storage/localfs"
	"github.com/lawpaw/lawpaw/internal/observability/metrics"
	"github.com/lawpaw/lawpaw/internal/pathrule"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Documents ports.DocumentStore
	Batches   ports.BatchStore
	Processor ports.BatchProcessor
	Metrics   *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, service string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	documents := postgres.NewDocumentRepository(db)
	if err := documents.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	batches := postgres.NewBatchRepository(db)
	if err := batches.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure batches schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	pipelineMetrics := metrics.NewPipelineMetrics(service)
	runner := cmdrunner.NewExecRunner(logger)

	scanner := bulkextract.NewScanner(bulkextract.Config{
		Binary: cfg.BulkExtractorBin,
	}, runner, logger)

	extractor := tesseract.NewExtractor(tesseract.Config{
		Pdfseparate:   cfg.PdfseparateBin,
		Pdftoppm:      cfg.PdftoppmBin,
		Tesseract:     cfg.TesseractBin,
		TesseractLang: cfg.TesseractLang,
		DPI:           cfg.OCRDPIResolution,
	}, runner, logger)

	classifier := openai.NewClient(openai.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		Temperature: float32(cfg.OpenAITemp),
	}, resilience.NewExecutor(resilience.SingleAttempt()), logger)

	var reportWriter ports.ReportWriter = report.NewCSVWriter(logger)
	if cfg.ReportFormat == "xlsx" {
		reportWriter = report.NewXLSXWriter(logger)
	}

	processor := usecase.NewProcessBatchUseCase(
		scanner,
		extractor,
		classifier,
		pathrule.NewDeriver(),
		localfs.NewArchiver(logger),
		documents,
		reportWriter,
		logger,
		pipelineMetrics,
		cfg.WorkerCount,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Queue:     queue,
		Documents: documents,
		Batches:   batches,
		Processor: processor,
		Metrics:   pipelineMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
