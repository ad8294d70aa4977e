package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

func newDocRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestInsertReturnsGeneratedID(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	doc := domain.LegalDocument{
		Filename:     "PL_TestPlaintiff_MOT_SUMMARY_JUDGMENT_MOTION_04-01-2024.pdf",
		OriginalPath: "/corpus/scan001.pdf",
		NewPath:      "/archive/CV-2024-1234/Test_Plaintiff/motion/2024-04-01/PL_TestPlaintiff_MOT_SUMMARY_JUDGMENT_MOTION_04-01-2024.pdf",
		DocumentType: "motion",
		FilingDate:   "2024-04-01",
		MovingParty:  "Test Plaintiff",
		Court:        "Superior Court",
		Judge:        "Hon. Example",
		DocketNumber: "CV-2024-1234",
		Summary:      "Summary judgment motion",
		ProcessedAt:  time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery("INSERT INTO legal_documents").
		WithArgs(doc.Filename, doc.OriginalPath, doc.NewPath, doc.DocumentType, doc.FilingDate,
			doc.MovingParty, doc.Court, doc.Judge, doc.DocketNumber, doc.Summary, doc.ProcessedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.Insert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id != 42 {
		t.Fatalf("Insert() id = %d, want 42", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertWrapsPersistenceErrors(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO legal_documents").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.Insert(context.Background(), domain.LegalDocument{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, original_path").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListScansRowsInOrder(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	processedAt := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "filename", "original_path", "new_path", "document_type", "filing_date",
		"moving_party", "court", "judge", "docket_number", "summary", "processed_at",
	}).
		AddRow(int64(2), "b.pdf", "/in/b.pdf", "/out/b.pdf", "motion", "2024-04-01",
			"Test Plaintiff", "Superior Court", "Hon. Example", "CV-2024-1234", "second", processedAt).
		AddRow(int64(1), "a.pdf", "/in/a.pdf", "/out/a.pdf", "opposition", "2024-03-15",
			"Defendant Corp", "Superior Court", "Hon. Example", "CV-2024-1234", "first", processedAt.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, filename, original_path").
		WithArgs(2).
		WillReturnRows(rows)

	docs, err := repo.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("List() returned %d docs, want 2", len(docs))
	}
	if docs[0].ID != 2 || docs[1].ID != 1 {
		t.Fatalf("List() order = [%d %d], want [2 1]", docs[0].ID, docs[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
