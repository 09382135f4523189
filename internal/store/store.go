package store

import (
	"context"

	"github.com/sells-group/leadscan/internal/model"
)

// Enrichment carries the secondary-source fields the matcher writes back.
type Enrichment struct {
	Rating         *float64
	Reviews        *int
	PriceTier      *string
	Cuisines       *string
	PrimaryCuisine *string
	CategoryTitles *string
}

// Filter narrows ListPlaces.
type Filter struct {
	Zip string
}

// Store is the persistence interface for canonical places.
//
// Upserts never overwrite existing rows; all column-level mutation goes
// through the explicit Update* methods so re-running the loader cannot
// clobber matcher-owned columns.
type Store interface {
	Migrate(ctx context.Context) error

	// UpsertPlaces inserts new places, ignoring conflicts on place_id.
	// Returns the number of rows actually inserted.
	UpsertPlaces(ctx context.Context, records []model.Merged) (int, error)

	// TouchLastSeen refreshes last_seen for the given ids.
	TouchLastSeen(ctx context.Context, placeIDs []string) error

	// Unenriched returns rows eligible for (re)matching: status unset or a
	// legacy placeholder, or cuisine data still missing.
	Unenriched(ctx context.Context) ([]model.Place, error)

	// UpdateEnrichment writes an accepted match and sets status SUCCESS.
	UpdateEnrichment(ctx context.Context, placeID string, e Enrichment) error

	// MarkEnrichmentFailed records a miss, keeping any carried-over
	// category titles, and sets status FAIL.
	MarkEnrichmentFailed(ctx context.Context, placeID string, categoryTitles *string) error

	// UpdateGPVProjection sets the projected-volume column for one place.
	UpdateGPVProjection(ctx context.Context, placeID string, gpv float64) error

	ListPlaces(ctx context.Context, filter Filter) ([]model.Place, error)
	CountPlaces(ctx context.Context) (int, error)

	// RecordRun persists the outcome counts of one pipeline run.
	RecordRun(ctx context.Context, run model.RunSummary) error

	Close() error
}
