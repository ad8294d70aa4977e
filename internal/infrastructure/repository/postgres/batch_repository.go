package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	input_location TEXT NOT NULL,
	output_location TEXT NOT NULL,
	keyword TEXT NOT NULL,
	processed_count INTEGER NOT NULL DEFAULT 0,
	succeeded_count INTEGER NOT NULL DEFAULT 0,
	failed_count INTEGER NOT NULL DEFAULT 0,
	results JSONB NOT NULL DEFAULT '[]'::jsonb,
	report_path TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *BatchRepository) Create(ctx context.Context, id string, req domain.BatchRequest) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO batches (id, status, input_location, output_location, keyword, started_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, id, string(domain.BatchPending), req.InputDir, req.OutputDir, req.Keyword, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "create batch", err)
	}
	return nil
}

func (r *BatchRepository) Finish(ctx context.Context, report *domain.BatchReport) error {
	resultsJSON, err := json.Marshal(report.Results)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "marshal batch results", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE batches
SET status = $2, processed_count = $3, succeeded_count = $4, failed_count = $5,
	results = $6, report_path = $7, error_message = $8, finished_at = $9
WHERE id = $1
`, report.ID, string(report.Status), report.ProcessedCount, report.SucceededCount, report.FailedCount,
		resultsJSON, report.ReportPath, report.Error, report.FinishedAt)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "finish batch", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "finish batch", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrBatchNotFound, "finish batch", fmt.Errorf("id %s", report.ID))
	}
	return nil
}

func (r *BatchRepository) Get(ctx context.Context, id string) (*domain.BatchReport, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, status, processed_count, succeeded_count, failed_count, results, report_path, error_message, started_at, finished_at
FROM batches
WHERE id = $1
`, id)

	var report domain.BatchReport
	var status string
	var resultsRaw []byte
	var finishedAt sql.NullTime

	err := row.Scan(
		&report.ID, &status, &report.ProcessedCount, &report.SucceededCount, &report.FailedCount,
		&resultsRaw, &report.ReportPath, &report.Error, &report.StartedAt, &finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBatchNotFound, "get batch", fmt.Errorf("id %s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get batch", err)
	}

	if err := json.Unmarshal(resultsRaw, &report.Results); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "unmarshal batch results", err)
	}
	report.Status = domain.BatchStatus(status)
	if finishedAt.Valid {
		report.FinishedAt = finishedAt.Time
	}
	return &report, nil
}
