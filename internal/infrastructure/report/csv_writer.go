// Package report serializes batch results into tabular files under the
// output root's reports directory.
package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

// Columns is the fixed report header, in order.
var Columns = []string{
	"filename",
	"original_path",
	"new_path",
	"document_type",
	"filing_date",
	"moving_party",
	"court",
	"judge",
	"docket_number",
	"summary",
}

type CSVWriter struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger, now: time.Now}
}

// Write emits one row per result, in result order, failed documents included.
// The file lands at <outputRoot>/reports/legal_documents_<timestamp>.csv.
func (w *CSVWriter) Write(results []domain.ProcessingResult, outputRoot string) (string, error) {
	dir := filepath.Join(outputRoot, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "create reports directory", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("legal_documents_%s.csv", w.now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "create report file", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Columns); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "write report header", err)
	}
	for _, res := range results {
		if err := cw.Write(Row(res)); err != nil {
			return "", domain.WrapError(domain.ErrFilesystem, "write report row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "flush report", err)
	}

	w.logger.Info("report.write.ok", "path", path, "rows", len(results))
	return path, nil
}

// Row flattens one result into the report column order.
func Row(res domain.ProcessingResult) []string {
	name := ""
	switch {
	case res.NewPath != "":
		name = filepath.Base(res.NewPath)
	case res.OriginalPath != "":
		name = filepath.Base(res.OriginalPath)
	}
	return []string{
		name,
		res.OriginalPath,
		res.NewPath,
		res.Metadata.DocumentType,
		res.Metadata.FilingDate,
		res.Metadata.MovingParty,
		res.Metadata.Court,
		res.Metadata.Judge,
		res.Metadata.DocketNumber,
		res.Metadata.Summary,
	}
}
