package ports

import (
	"context"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

// CorpusScanner locates candidate documents matching a keyword under a root
// folder. A failed tool invocation yields an empty slice plus the error;
// "no matches" is an empty slice and a nil error.
type CorpusScanner interface {
	Scan(ctx context.Context, rootDir, keyword string) ([]domain.CandidateDocument, error)
}

// TextExtractor recovers text from the top half of a document's first page.
// It never fails the pipeline: on any stage failure the returned text is a
// sentinel embedding the failure reason.
type TextExtractor interface {
	ExtractTopHalfFirstPage(ctx context.Context, documentPath string) string
}

// MetadataClassifier turns extracted text into a complete metadata record.
// The record always carries the canonical field set; failures surface in the
// record's error field, never as a returned error.
type MetadataClassifier interface {
	Classify(ctx context.Context, text string) domain.Metadata
}

// Archiver materializes a document at its derived path under outputRoot and
// returns the absolute destination. It never deletes the source.
type Archiver interface {
	Place(ctx context.Context, sourcePath string, derived domain.DerivedPath, outputRoot string) (string, error)
}

// DocumentStore persists one row per processed document.
type DocumentStore interface {
	Insert(ctx context.Context, doc domain.LegalDocument) (int64, error)
	List(ctx context.Context, limit int) ([]domain.LegalDocument, error)
	GetByID(ctx context.Context, id int64) (*domain.LegalDocument, error)
}

// BatchStore persists batch lifecycle records for the async path.
type BatchStore interface {
	Create(ctx context.Context, id string, req domain.BatchRequest) error
	Finish(ctx context.Context, report *domain.BatchReport) error
	Get(ctx context.Context, id string) (*domain.BatchReport, error)
}

// ReportWriter serializes an ordered result sequence into a tabular report
// file and returns its path.
type ReportWriter interface {
	Write(results []domain.ProcessingResult, outputRoot string) (string, error)
}

// MessageQueue publishes/consumes queued batch requests.
type MessageQueue interface {
	PublishBatchRequested(ctx context.Context, batchID string, req domain.BatchRequest) error
	SubscribeBatchRequested(ctx context.Context, handler func(ctx context.Context, batchID string, req domain.BatchRequest) error) error
}

// BatchProcessor is the inbound contract for running one batch.
type BatchProcessor interface {
	Process(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error)
}
