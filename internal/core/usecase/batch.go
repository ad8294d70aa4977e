package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lawpaw/lawpaw/internal/core/domain"
	"github.com/lawpaw/lawpaw/internal/core/ports"
	"github.com/lawpaw/lawpaw/internal/observability/metrics"
	"github.com/lawpaw/lawpaw/internal/pathrule"
)

// ProcessBatchUseCase drives the per-document pipeline:
// scan -> extract -> classify -> derive path -> archive -> record.
// A stage failure marks that document failed and the batch moves on; only
// request validation aborts the whole batch.
type ProcessBatchUseCase struct {
	scanner    ports.CorpusScanner
	extractor  ports.TextExtractor
	classifier ports.MetadataClassifier
	deriver    *pathrule.Deriver
	archiver   ports.Archiver
	documents  ports.DocumentStore
	reports    ports.ReportWriter
	logger     *slog.Logger
	metrics    *metrics.PipelineMetrics
	workers    int
	now        func() time.Time
}

func NewProcessBatchUseCase(
	scanner ports.CorpusScanner,
	extractor ports.TextExtractor,
	classifier ports.MetadataClassifier,
	deriver *pathrule.Deriver,
	archiver ports.Archiver,
	documents ports.DocumentStore,
	reports ports.ReportWriter,
	logger *slog.Logger,
	m *metrics.PipelineMetrics,
	workers int,
) *ProcessBatchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &ProcessBatchUseCase{
		scanner:    scanner,
		extractor:  extractor,
		classifier: classifier,
		deriver:    deriver,
		archiver:   archiver,
		documents:  documents,
		reports:    reports,
		logger:     logger,
		metrics:    m,
		workers:    workers,
		now:        time.Now,
	}
}

// Process runs one batch. Results keep the scanner's candidate order
// regardless of which worker finished first.
func (uc *ProcessBatchUseCase) Process(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	started := uc.now().UTC()
	if err := uc.validate(req); err != nil {
		return nil, err
	}

	report := &domain.BatchReport{
		ID:        uuid.NewString(),
		Status:    domain.BatchRunning,
		StartedAt: started,
	}

	candidates, err := uc.scanner.Scan(ctx, req.InputDir, req.Keyword)
	if err != nil {
		// Scanner tool failure degrades to an empty candidate set.
		uc.logger.Warn("batch.scan.degraded", "batch_id", report.ID, "error", err)
		report.Error = err.Error()
	}
	uc.logger.Info("batch.process.start",
		"batch_id", report.ID,
		"input_dir", req.InputDir,
		"keyword", req.Keyword,
		"candidates", len(candidates),
	)

	report.Results = uc.processAll(ctx, candidates, req.OutputDir)
	report.ProcessedCount = len(report.Results)
	for _, r := range report.Results {
		if r.Status == domain.ResultSucceeded {
			report.SucceededCount++
		} else {
			report.FailedCount++
		}
	}

	if len(report.Results) > 0 {
		path, err := uc.reports.Write(report.Results, req.OutputDir)
		if err != nil {
			uc.logger.Error("batch.report.write_failed", "batch_id", report.ID, "error", err)
			report.Error = err.Error()
		} else {
			report.ReportPath = path
		}
	}

	report.Status = domain.BatchCompleted
	report.FinishedAt = uc.now().UTC()
	if uc.metrics != nil {
		uc.metrics.FinishBatch(report.FinishedAt.Sub(started), nil)
	}
	uc.logger.Info("batch.process.done",
		"batch_id", report.ID,
		"processed", report.ProcessedCount,
		"succeeded", report.SucceededCount,
		"failed", report.FailedCount,
		"elapsed_ms", report.FinishedAt.Sub(started).Milliseconds(),
	)
	return report, nil
}

// validate covers the only batch-fatal conditions: missing parameters, an
// unreadable input location, or an output location that cannot be created.
func (uc *ProcessBatchUseCase) validate(req domain.BatchRequest) error {
	if strings.TrimSpace(req.InputDir) == "" || strings.TrimSpace(req.OutputDir) == "" || strings.TrimSpace(req.Keyword) == "" {
		return domain.WrapError(domain.ErrValidation, "validate request",
			errors.New("input_location, output_location and keyword are required"))
	}
	info, err := os.Stat(req.InputDir)
	if err != nil {
		return domain.WrapError(domain.ErrValidation, "validate input location", err)
	}
	if !info.IsDir() {
		return domain.WrapError(domain.ErrValidation, "validate input location",
			fmt.Errorf("not a directory: %s", req.InputDir))
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return domain.WrapError(domain.ErrValidation, "validate output location", err)
	}
	return nil
}

func (uc *ProcessBatchUseCase) processAll(ctx context.Context, candidates []domain.CandidateDocument, outputRoot string) []domain.ProcessingResult {
	results := make([]domain.ProcessingResult, len(candidates))
	sem := make(chan struct{}, uc.workers)
	var wg sync.WaitGroup

	for i, cand := range candidates {
		// Cancellation checkpoint: documents not yet started are marked
		// failed; in-flight workers finish their current document.
		if ctx.Err() != nil {
			results[i] = domain.ProcessingResult{
				OriginalPath: cand.Path,
				Status:       domain.ResultFailed,
				FailedStage:  domain.StageScanned,
				Error:        "batch canceled before processing",
			}
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, cand domain.CandidateDocument) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = uc.processDocument(ctx, cand, outputRoot)
		}(i, cand)
	}
	wg.Wait()
	return results
}

func (uc *ProcessBatchUseCase) processDocument(ctx context.Context, cand domain.CandidateDocument, outputRoot string) domain.ProcessingResult {
	start := uc.now()
	if uc.metrics != nil {
		uc.metrics.StartDocument()
	}

	res := uc.runStages(ctx, cand, outputRoot)

	if uc.metrics != nil {
		var err error
		if res.Status == domain.ResultFailed {
			err = errors.New(res.Error)
		}
		uc.metrics.FinishDocument(uc.now().Sub(start), err)
	}
	return res
}

func (uc *ProcessBatchUseCase) runStages(ctx context.Context, cand domain.CandidateDocument, outputRoot string) domain.ProcessingResult {
	res := domain.ProcessingResult{OriginalPath: cand.Path}

	// Extraction and classification absorb their own failures: the extractor
	// hands back sentinel text and the classifier a fallback record, so the
	// document always reaches path derivation with a complete field set.
	text := uc.extractor.ExtractTopHalfFirstPage(ctx, cand.Path)
	res.Metadata = uc.classifier.Classify(ctx, text)
	derived := uc.deriver.Derive(res.Metadata)

	newPath, err := uc.archiver.Place(ctx, cand.Path, derived, outputRoot)
	if err != nil {
		uc.logger.Error("document.archive.failed", "path", cand.Path, "error", err)
		return failed(res, domain.StageArchived, err)
	}
	res.NewPath = newPath

	row := domain.NewLegalDocument(res.Metadata, cand.Path, newPath, derived.Filename, uc.now().UTC())
	if _, err := uc.documents.Insert(ctx, row); err != nil {
		uc.logger.Error("document.record.failed", "path", cand.Path, "error", err)
		return failed(res, domain.StageRecorded, err)
	}

	res.Status = domain.ResultSucceeded
	uc.logger.Info("document.processed",
		"original_path", cand.Path,
		"new_path", newPath,
		"document_type", res.Metadata.DocumentType,
		"docket_number", res.Metadata.DocketNumber,
	)
	return res
}

func failed(res domain.ProcessingResult, stage domain.Stage, err error) domain.ProcessingResult {
	res.Status = domain.ResultFailed
	res.FailedStage = stage
	res.Error = err.Error()
	return res
}
