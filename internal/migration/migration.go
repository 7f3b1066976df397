package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"sedes/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements lists the schema statements in execution order
func (r *MigrationRunner) Statements() []string {
	return []string{createLoadRunsTable, createLoadRunsIndex}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range r.Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError("failed to apply load history schema", err)
		}
	}
	return nil
}

const createLoadRunsTable = `
	CREATE TABLE IF NOT EXISTS load_runs (
		id UUID PRIMARY KEY,
		source TEXT NOT NULL,
		status VARCHAR(20) NOT NULL,
		error_code VARCHAR(50),
		error_message TEXT,
		row_count INTEGER NOT NULL DEFAULT 0,
		record_count INTEGER NOT NULL DEFAULT 0,
		header_count INTEGER NOT NULL DEFAULT 0,
		fingerprint VARCHAR(64),
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		duration_ms BIGINT NOT NULL DEFAULT 0
	)
`

const createLoadRunsIndex = `
	CREATE INDEX IF NOT EXISTS idx_load_runs_started_at ON load_runs (started_at DESC)
`
