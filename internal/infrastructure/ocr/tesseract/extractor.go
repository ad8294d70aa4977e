// Package tesseract recovers text from the top half of a document's first
// page: isolate page one, rasterize it at high resolution, crop, then run
// optical character recognition. Every intermediate artifact lives in a
// scoped temp directory that is removed on all exit paths.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/lawpaw/lawpaw/internal/infrastructure/cmdrunner"
)

// SentinelPrefix marks extractor output produced by the failure path. The
// classifier still receives this text so a broken scan never aborts a batch.
const SentinelPrefix = "Error extracting text: "

type Config struct {
	Pdfseparate string // binary name or absolute path; if empty -> "pdfseparate"
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string        // default "eng"
	DPI           int           // rasterization DPI, default 300
	StepTimeout   time.Duration // per external invocation, default 2m
}

type Extractor struct {
	cfg    Config
	runner cmdrunner.Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, runner cmdrunner.Runner, logger *slog.Logger) *Extractor {
	if cfg.Pdfseparate == "" {
		cfg.Pdfseparate = "pdfseparate"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// ExtractTopHalfFirstPage never propagates a failure: any stage error is
// folded into the returned sentinel text.
func (e *Extractor) ExtractTopHalfFirstPage(ctx context.Context, documentPath string) string {
	text, err := e.extract(ctx, documentPath)
	if err != nil {
		e.logger.Warn("ocr.extract.failed", "path", documentPath, "error", err)
		return SentinelPrefix + err.Error()
	}
	return text
}

func (e *Extractor) extract(ctx context.Context, documentPath string) (string, error) {
	if err := preflight(documentPath); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "lawpaw-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create ocr workdir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr workdir cleanup failed", "dir", tmpDir, "error", err)
		}
	}()

	firstPage := filepath.Join(tmpDir, "page1.pdf")
	if err := e.run(ctx, e.cfg.Pdfseparate, "-f", "1", "-l", "1", documentPath, firstPage); err != nil {
		return "", fmt.Errorf("isolate first page: %w", err)
	}

	rasterPrefix := filepath.Join(tmpDir, "page1")
	if err := e.run(ctx, e.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", e.cfg.DPI),
		"-png", "-singlefile",
		firstPage, rasterPrefix,
	); err != nil {
		return "", fmt.Errorf("rasterize first page: %w", err)
	}

	cropped := filepath.Join(tmpDir, "page1_top.png")
	if err := cropTopHalf(rasterPrefix+".png", cropped); err != nil {
		return "", fmt.Errorf("crop top half: %w", err)
	}

	outPrefix := filepath.Join(tmpDir, "ocr")
	if err := e.run(ctx, e.cfg.Tesseract, cropped, outPrefix, "-l", e.cfg.TesseractLang); err != nil {
		return "", fmt.Errorf("run ocr: %w", err)
	}

	raw, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return "", fmt.Errorf("read ocr output: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.StepTimeout)
	defer cancel()

	_, stderr, err := e.runner.Run(runCtx, name, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// preflight rejects unreadable or page-less PDFs before any tool runs.
func preflight(documentPath string) error {
	f, r, err := pdf.Open(documentPath)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return fmt.Errorf("pdf has no pages: %s", documentPath)
	}
	return nil
}
