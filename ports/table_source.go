package ports

import (
	"context"

	"sedes/domain/dataset"
)

// TableSource fetches and parses the published spreadsheet. Fetch blocks until
// the resource is fully parsed or fails; failures are reported as errors,
// never as a partial table.
type TableSource interface {
	Fetch(ctx context.Context) (dataset.RawTable, error)
	Describe() string
}
