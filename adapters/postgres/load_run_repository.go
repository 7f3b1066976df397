package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"sedes/domain/dataset"
	"sedes/ports"
)

const (
	loadRunsTable       = "load_runs"
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var loadRunColumns = []string{
	"id", "source", "status", "error_code", "error_message", "row_count",
	"record_count", "header_count", "fingerprint", "started_at", "duration_ms",
}

// loadRunRepository implements the LoadRunRepository interface
type loadRunRepository struct {
	db *sqlx.DB
}

// NewLoadRunRepository creates a new load history repository
func NewLoadRunRepository(db *sqlx.DB) ports.LoadRunRepository {
	return &loadRunRepository{db: db}
}

// Record inserts one load attempt
func (r *loadRunRepository) Record(ctx context.Context, run *dataset.LoadRun) error {
	query, args, err := insertLoadRun(run).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build load run insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record load run: %w", err)
	}
	return nil
}

// ListRecent returns the newest load attempts first
func (r *loadRunRepository) ListRecent(ctx context.Context, limit int) ([]*dataset.LoadRun, error) {
	query, args, err := selectRecentLoadRuns(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build load run query: %w", err)
	}

	runs := []*dataset.LoadRun{}
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list load runs: %w", err)
	}
	return runs, nil
}

func insertLoadRun(run *dataset.LoadRun) sq.InsertBuilder {
	return psql.Insert(loadRunsTable).
		Columns(loadRunColumns...).
		Values(
			run.ID.String(), run.Source, string(run.Status), run.ErrorCode, run.ErrorMessage, run.RowCount,
			run.RecordCount, run.HeaderCount, run.Fingerprint, run.StartedAt, run.DurationMS,
		)
}

func selectRecentLoadRuns(limit int) sq.SelectBuilder {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return psql.Select(
		"id", "source", "status",
		"COALESCE(error_code, '') AS error_code",
		"COALESCE(error_message, '') AS error_message",
		"row_count", "record_count", "header_count",
		"COALESCE(fingerprint, '') AS fingerprint",
		"started_at", "duration_ms",
	).
		From(loadRunsTable).
		OrderBy("started_at DESC").
		Limit(uint64(limit))
}
