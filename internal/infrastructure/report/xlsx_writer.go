package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

// XLSXWriter mirrors the CSV report as a spreadsheet, same columns and order.
type XLSXWriter struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger, now: time.Now}
}

func (w *XLSXWriter) Write(results []domain.ProcessingResult, outputRoot string) (string, error) {
	dir := filepath.Join(outputRoot, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "create reports directory", err)
	}

	const sheet = "Documents"
	book := excelize.NewFile()
	defer func() {
		if err := book.Close(); err != nil {
			w.logger.Warn("report.xlsx.close_error", "error", err)
		}
	}()

	if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "name report sheet", err)
	}

	header := make([]any, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "write report header", err)
	}

	for i, res := range results {
		cells := Row(res)
		row := make([]any, len(cells))
		for j, cell := range cells {
			row[j] = cell
		}
		addr, err := excelize.JoinCellName("A", i+2)
		if err != nil {
			return "", domain.WrapError(domain.ErrFilesystem, "address report row", err)
		}
		if err := book.SetSheetRow(sheet, addr, &row); err != nil {
			return "", domain.WrapError(domain.ErrFilesystem, "write report row", err)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("legal_documents_%s.xlsx", w.now().Format("20060102_150405")))
	if err := book.SaveAs(path); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "save report workbook", err)
	}

	w.logger.Info("report.write.ok", "path", path, "rows", len(results))
	return path, nil
}
