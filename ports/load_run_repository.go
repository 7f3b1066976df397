package ports

import (
	"context"

	"sedes/domain/dataset"
)

// LoadRunRepository keeps the history of ingestion attempts
type LoadRunRepository interface {
	Record(ctx context.Context, run *dataset.LoadRun) error
	ListRecent(ctx context.Context, limit int) ([]*dataset.LoadRun, error)
}
