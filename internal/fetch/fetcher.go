package fetch

import (
	"context"

	"github.com/sells-group/leadscan/internal/model"
)

// Fetcher produces raw records for a list of ZIP codes from one source.
// Each call returns its own slice; callers concatenate.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, zips []string) ([]model.RawRecord, error)
}

// Registered pairs a fetcher with its enabled flag, mirroring the source
// registry the orchestrator iterates.
type Registered struct {
	Fetcher Fetcher
	Enabled bool
}
