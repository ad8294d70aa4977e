// Package postgres persists processed documents and batch lifecycle records.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS legal_documents (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	original_path TEXT NOT NULL,
	new_path TEXT NOT NULL,
	document_type TEXT NOT NULL,
	filing_date TEXT NOT NULL,
	moving_party TEXT NOT NULL,
	court TEXT NOT NULL,
	judge TEXT NOT NULL,
	docket_number TEXT NOT NULL,
	summary TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_legal_documents_docket ON legal_documents(docket_number);
CREATE INDEX IF NOT EXISTS idx_legal_documents_processed_at ON legal_documents(processed_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Insert(ctx context.Context, doc domain.LegalDocument) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO legal_documents (
	filename, original_path, new_path, document_type, filing_date, moving_party, court, judge, docket_number, summary, processed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id
`,
		doc.Filename, doc.OriginalPath, doc.NewPath, doc.DocumentType, doc.FilingDate,
		doc.MovingParty, doc.Court, doc.Judge, doc.DocketNumber, doc.Summary, doc.ProcessedAt,
	).Scan(&id)
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "insert legal document", err)
	}
	return id, nil
}

func (r *DocumentRepository) List(ctx context.Context, limit int) ([]domain.LegalDocument, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, original_path, new_path, document_type, filing_date, moving_party, court, judge, docket_number, summary, processed_at
FROM legal_documents
ORDER BY processed_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list legal documents", err)
	}
	defer rows.Close()

	var out []domain.LegalDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan legal document", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate legal documents", err)
	}
	return out, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.LegalDocument, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, original_path, new_path, document_type, filing_date, moving_party, court, judge, docket_number, summary, processed_at
FROM legal_documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get legal document", fmt.Errorf("id %d", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get legal document", err)
	}
	return &doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.LegalDocument, error) {
	var doc domain.LegalDocument
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.OriginalPath, &doc.NewPath, &doc.DocumentType, &doc.FilingDate,
		&doc.MovingParty, &doc.Court, &doc.Judge, &doc.DocketNumber, &doc.Summary, &doc.ProcessedAt,
	)
	return doc, err
}
