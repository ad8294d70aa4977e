package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lawpaw/lawpaw/internal/core/domain"
	"github.com/lawpaw/lawpaw/internal/pathrule"
)

type stubScanner struct {
	docs []domain.CandidateDocument
	err  error
}

func (s *stubScanner) Scan(context.Context, string, string) ([]domain.CandidateDocument, error) {
	return s.docs, s.err
}

// stubExtractor fails for paths listed in failFor, mirroring the sentinel
// behavior of the real extractor.
type stubExtractor struct {
	failFor map[string]string
}

func (s *stubExtractor) ExtractTopHalfFirstPage(_ context.Context, path string) string {
	if reason, ok := s.failFor[path]; ok {
		return "Error extracting text: " + reason
	}
	return "SUPERIOR COURT\nTest Plaintiff v. Defendant\nCase No. CV-2024-1234"
}

type stubClassifier struct {
	err string
}

func (s *stubClassifier) Classify(_ context.Context, text string) domain.Metadata {
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if s.err != "" || strings.HasPrefix(text, "Error extracting text:") {
		reason := s.err
		if reason == "" {
			reason = "degraded input"
		}
		return domain.FallbackMetadata(now, reason)
	}
	return domain.MergeMetadata(now, map[string]string{
		domain.FieldDocumentType: "motion",
		domain.FieldFilingDate:   "2024-04-01",
		domain.FieldMovingParty:  "Test Plaintiff",
		domain.FieldDocketNumber: "CV-2024-1234",
		domain.FieldSummary:      "summary judgment motion",
	})
}

type stubArchiver struct {
	mu     sync.Mutex
	placed []string
	errFor map[string]error
}

func (s *stubArchiver) Place(_ context.Context, sourcePath string, derived domain.DerivedPath, outputRoot string) (string, error) {
	if err, ok := s.errFor[sourcePath]; ok {
		return "", err
	}
	dst := outputRoot + "/" + strings.Join(derived.Directory, "/") + "/" + derived.Filename
	s.mu.Lock()
	s.placed = append(s.placed, dst)
	s.mu.Unlock()
	return dst, nil
}

type stubDocumentStore struct {
	mu     sync.Mutex
	rows   []domain.LegalDocument
	insErr error
}

func (s *stubDocumentStore) Insert(_ context.Context, doc domain.LegalDocument) (int64, error) {
	if s.insErr != nil {
		return 0, s.insErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, doc)
	return int64(len(s.rows)), nil
}

func (s *stubDocumentStore) List(context.Context, int) ([]domain.LegalDocument, error) {
	return s.rows, nil
}

func (s *stubDocumentStore) GetByID(context.Context, int64) (*domain.LegalDocument, error) {
	return nil, domain.ErrDocumentNotFound
}

type stubReportWriter struct {
	gotResults []domain.ProcessingResult
	err        error
}

func (s *stubReportWriter) Write(results []domain.ProcessingResult, outputRoot string) (string, error) {
	s.gotResults = results
	if s.err != nil {
		return "", s.err
	}
	return outputRoot + "/reports/legal_documents_test.csv", nil
}

func newTestUseCase(scanner *stubScanner, extractor *stubExtractor, classifier *stubClassifier,
	archiver *stubArchiver, store *stubDocumentStore, writer *stubReportWriter) *ProcessBatchUseCase {
	if extractor == nil {
		extractor = &stubExtractor{}
	}
	if classifier == nil {
		classifier = &stubClassifier{}
	}
	if archiver == nil {
		archiver = &stubArchiver{}
	}
	if store == nil {
		store = &stubDocumentStore{}
	}
	if writer == nil {
		writer = &stubReportWriter{}
	}
	return NewProcessBatchUseCase(scanner, extractor, classifier,
		pathrule.NewDeriver(), archiver, store, writer, nil, nil, 2)
}

func validRequest(t *testing.T) domain.BatchRequest {
	t.Helper()
	return domain.BatchRequest{
		InputDir:  t.TempDir(),
		OutputDir: t.TempDir(),
		Keyword:   "subpoena",
	}
}

func TestProcessFailedDocumentDoesNotAbortBatch(t *testing.T) {
	scanner := &stubScanner{docs: []domain.CandidateDocument{
		{Path: "/corpus/broken.pdf", SourceLabel: "local"},
		{Path: "/corpus/good.pdf", SourceLabel: "local"},
	}}
	// First document degrades at extraction; it still flows through
	// classification and archiving with the fallback record.
	extractor := &stubExtractor{failFor: map[string]string{"/corpus/broken.pdf": "ocr timed out"}}
	store := &stubDocumentStore{}
	writer := &stubReportWriter{}
	uc := newTestUseCase(scanner, extractor, nil, nil, store, writer)

	report, err := uc.Process(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if report.ProcessedCount != 2 {
		t.Fatalf("ProcessedCount = %d, want 2", report.ProcessedCount)
	}
	if report.SucceededCount != 2 {
		t.Fatalf("SucceededCount = %d, degraded extraction still archives", report.SucceededCount)
	}
	if report.Results[0].Metadata.Error == "" {
		t.Fatalf("first result should carry the fallback error field")
	}
	if len(store.rows) != 2 {
		t.Fatalf("store has %d rows, want 2", len(store.rows))
	}
	if len(writer.gotResults) != 2 {
		t.Fatalf("report writer received %d results", len(writer.gotResults))
	}
}

func TestProcessArchiveFailureMarksDocumentFailed(t *testing.T) {
	scanner := &stubScanner{docs: []domain.CandidateDocument{
		{Path: "/corpus/a.pdf"},
		{Path: "/corpus/b.pdf"},
	}}
	archiver := &stubArchiver{errFor: map[string]error{
		"/corpus/b.pdf": domain.WrapError(domain.ErrPathCollision, "place document", errors.New("destination exists")),
	}}
	store := &stubDocumentStore{}
	uc := newTestUseCase(scanner, nil, nil, archiver, store, nil)

	report, err := uc.Process(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if report.SucceededCount != 1 || report.FailedCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", report.SucceededCount, report.FailedCount)
	}
	failedResult := report.Results[1]
	if failedResult.Status != domain.ResultFailed || failedResult.FailedStage != domain.StageArchived {
		t.Fatalf("failed result = %+v", failedResult)
	}
	if len(store.rows) != 1 {
		t.Fatalf("store has %d rows, want only the archived document", len(store.rows))
	}
}

func TestProcessRecordFailureKeepsNewPath(t *testing.T) {
	scanner := &stubScanner{docs: []domain.CandidateDocument{{Path: "/corpus/a.pdf"}}}
	store := &stubDocumentStore{insErr: domain.WrapError(domain.ErrPersistence, "insert", errors.New("db down"))}
	uc := newTestUseCase(scanner, nil, nil, nil, store, nil)

	report, err := uc.Process(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	res := report.Results[0]
	if res.Status != domain.ResultFailed || res.FailedStage != domain.StageRecorded {
		t.Fatalf("result = %+v", res)
	}
	if res.NewPath == "" {
		t.Fatalf("archived file path must survive a record failure")
	}
}

func TestProcessResultsKeepScannerOrder(t *testing.T) {
	var docs []domain.CandidateDocument
	for i := 0; i < 20; i++ {
		docs = append(docs, domain.CandidateDocument{Path: fmt.Sprintf("/corpus/doc%02d.pdf", i)})
	}
	scanner := &stubScanner{docs: docs}
	uc := newTestUseCase(scanner, nil, nil, nil, nil, nil)

	report, err := uc.Process(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for i, res := range report.Results {
		want := fmt.Sprintf("/corpus/doc%02d.pdf", i)
		if res.OriginalPath != want {
			t.Fatalf("Results[%d].OriginalPath = %q, want %q", i, res.OriginalPath, want)
		}
	}
}

func TestProcessScannerFailureDegradesToEmptyBatch(t *testing.T) {
	scanner := &stubScanner{err: domain.WrapError(domain.ErrToolInvocation, "run bulk_extractor", errors.New("exit 1"))}
	writer := &stubReportWriter{}
	uc := newTestUseCase(scanner, nil, nil, nil, nil, writer)

	report, err := uc.Process(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Process() error = %v, scanner failure must not abort", err)
	}
	if report.ProcessedCount != 0 {
		t.Fatalf("ProcessedCount = %d, want 0", report.ProcessedCount)
	}
	if report.Error == "" {
		t.Fatalf("report should note the degraded scan")
	}
	if report.Status != domain.BatchCompleted {
		t.Fatalf("Status = %q, want completed", report.Status)
	}
}

func TestProcessValidationFailures(t *testing.T) {
	uc := newTestUseCase(&stubScanner{}, nil, nil, nil, nil, nil)

	cases := []struct {
		name string
		req  domain.BatchRequest
	}{
		{"missing keyword", domain.BatchRequest{InputDir: t.TempDir(), OutputDir: t.TempDir()}},
		{"missing input", domain.BatchRequest{OutputDir: t.TempDir(), Keyword: "x"}},
		{"input does not exist", domain.BatchRequest{InputDir: "/nonexistent/corpus", OutputDir: t.TempDir(), Keyword: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Process(context.Background(), tc.req)
			if !domain.IsKind(err, domain.ErrValidation) {
				t.Fatalf("Process() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestProcessCanceledContextMarksRemainingFailed(t *testing.T) {
	scanner := &stubScanner{docs: []domain.CandidateDocument{
		{Path: "/corpus/a.pdf"},
		{Path: "/corpus/b.pdf"},
	}}
	uc := newTestUseCase(scanner, nil, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := uc.Process(ctx, validRequest(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for i, res := range report.Results {
		if res.Status != domain.ResultFailed {
			t.Fatalf("Results[%d].Status = %q, want failed after cancel", i, res.Status)
		}
	}
	if report.FailedCount != 2 {
		t.Fatalf("FailedCount = %d, want 2", report.FailedCount)
	}
}
