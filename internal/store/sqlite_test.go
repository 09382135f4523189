package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscan/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func merged(placeID, name string) model.Merged {
	lat, lon := 47.04, -122.9
	return model.Merged{
		RawRecord: model.RawRecord{
			PlaceID:          placeID,
			Name:             name,
			FormattedAddress: "123 Main St, Olympia, WA 98501",
			City:             "Olympia",
			State:            "WA",
			ZipCode:          "98501",
			Lat:              &lat,
			Lon:              &lon,
			Categories:       []string{"restaurant", "food"},
			Source:           model.SourceGoogleSMB,
			LastSeen:         time.Now().UTC(),
		},
		AppearedIn: []string{model.SourceGoogleSMB},
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	// A second migration on an up-to-date schema is a no-op.
	require.NoError(t, s.Migrate(context.Background()))
}

func TestMigrateAddsMissingColumns(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "old.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// Simulate a first-revision database without the enrichment columns.
	_, err = s.db.ExecContext(ctx, `CREATE TABLE places (
		place_id TEXT PRIMARY KEY, name TEXT, formatted_address TEXT,
		city TEXT, state TEXT, zip_code TEXT, lat REAL, lon REAL,
		rating REAL, user_ratings_total INTEGER, price_level INTEGER,
		business_status TEXT, local_phone TEXT, intl_phone TEXT,
		website TEXT, photo_ref TEXT, distance_miles REAL, source TEXT,
		first_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP, last_seen TIMESTAMP,
		yelp_rating REAL, yelp_reviews INTEGER, yelp_price_tier TEXT,
		yelp_status TEXT
	)`)
	require.NoError(t, err)

	require.NoError(t, s.Migrate(ctx))

	// The new columns must be queryable afterwards.
	_, err = s.db.ExecContext(ctx,
		`SELECT categories, appeared_in, needs_verification, gpv_projection FROM places`)
	require.NoError(t, err)
}

func TestUpsertPlacesIgnoresConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := merged("p1", "Brick House")
	n, err := s.UpsertPlaces(ctx, []model.Merged{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Re-running with a changed name must not overwrite the stored row.
	renamed := merged("p1", "Totally Different")
	n, err = s.UpsertPlaces(ctx, []model.Merged{renamed, merged("p2", "Second")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	places, err := s.ListPlaces(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Brick House", places[0].Name)
	assert.Equal(t, "restaurant,food", places[0].Categories)
	assert.Equal(t, "restaurant", places[0].Category)
	assert.Equal(t, model.SourceGoogleSMB, places[0].AppearedIn)
}

func TestUpsertPlacesSkipsEmptyID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.UpsertPlaces(ctx, []model.Merged{merged("", "No ID")})
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := s.CountPlaces(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTouchLastSeen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := merged("p1", "Brick House")
	rec.LastSeen = time.Now().Add(-24 * time.Hour).UTC()
	_, err := s.UpsertPlaces(ctx, []model.Merged{rec})
	require.NoError(t, err)

	require.NoError(t, s.TouchLastSeen(ctx, []string{"p1"}))

	places, err := s.ListPlaces(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, places, 1)
	require.NotNil(t, places[0].LastSeen)
	assert.WithinDuration(t, time.Now().UTC(), *places[0].LastSeen, time.Minute)

	// Empty id list is a no-op, not an error.
	require.NoError(t, s.TouchLastSeen(ctx, nil))
}

func TestUnenrichedRequeue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertPlaces(ctx, []model.Merged{
		merged("fresh", "Never Matched"),
		merged("legacy", "Legacy Status"),
		merged("done", "Fully Matched"),
		merged("failed", "Match Failed"),
	})
	require.NoError(t, err)

	// Legacy rows predate the SUCCESS/FAIL status scheme.
	_, err = s.db.ExecContext(ctx, `UPDATE places SET yelp_status = 'open' WHERE place_id = 'legacy'`)
	require.NoError(t, err)

	cuisines := "mexican,tacos"
	primary := "mexican"
	rating := 4.5
	reviews := 120
	require.NoError(t, s.UpdateEnrichment(ctx, "done", Enrichment{
		Rating:         &rating,
		Reviews:        &reviews,
		Cuisines:       &cuisines,
		PrimaryCuisine: &primary,
	}))
	require.NoError(t, s.MarkEnrichmentFailed(ctx, "failed", nil))

	rows, err := s.Unenriched(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.PlaceID)
	}
	assert.Contains(t, ids, "fresh", "unmatched rows requeue")
	assert.Contains(t, ids, "legacy", "legacy statuses requeue")
	assert.Contains(t, ids, "failed", "failed rows without cuisines requeue")
	assert.NotContains(t, ids, "done", "successful matches with cuisines stay out")
}

func TestUpdateEnrichment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertPlaces(ctx, []model.Merged{merged("p1", "Brick House")})
	require.NoError(t, err)

	rating := 4.0
	reviews := 37
	tier := "$$"
	cuisines := "breakfast_brunch,burgers"
	primary := "breakfast_brunch"
	titles := "Breakfast & Brunch,Burgers"
	require.NoError(t, s.UpdateEnrichment(ctx, "p1", Enrichment{
		Rating:         &rating,
		Reviews:        &reviews,
		PriceTier:      &tier,
		Cuisines:       &cuisines,
		PrimaryCuisine: &primary,
		CategoryTitles: &titles,
	}))

	places, err := s.ListPlaces(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, places, 1)

	p := places[0]
	assert.Equal(t, model.MatchSuccess, p.YelpStatus)
	require.NotNil(t, p.YelpRating)
	assert.Equal(t, 4.0, *p.YelpRating)
	require.NotNil(t, p.YelpReviews)
	assert.Equal(t, 37, *p.YelpReviews)
	require.NotNil(t, p.YelpPrimaryCuisine)
	assert.Equal(t, "breakfast_brunch", *p.YelpPrimaryCuisine)

	t.Run("unknown place errors", func(t *testing.T) {
		err := s.UpdateEnrichment(ctx, "missing", Enrichment{})
		assert.Error(t, err)
	})
}

func TestMarkEnrichmentFailed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertPlaces(ctx, []model.Merged{merged("p1", "Brick House")})
	require.NoError(t, err)

	titles := "Meal Takeaway,Restaurant"
	require.NoError(t, s.MarkEnrichmentFailed(ctx, "p1", &titles))

	places, err := s.ListPlaces(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, model.MatchFail, places[0].YelpStatus)
	require.NotNil(t, places[0].YelpCategoryTitles)
	assert.Equal(t, titles, *places[0].YelpCategoryTitles)
	assert.Nil(t, places[0].YelpCuisines)
}

func TestUpdateGPVProjection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertPlaces(ctx, []model.Merged{merged("p1", "Brick House")})
	require.NoError(t, err)

	require.NoError(t, s.UpdateGPVProjection(ctx, "p1", 125000.50))

	places, err := s.ListPlaces(ctx, Filter{})
	require.NoError(t, err)
	require.NotNil(t, places[0].GPVProjection)
	assert.Equal(t, 125000.50, *places[0].GPVProjection)

	// Projections can reference businesses outside the fetched geography.
	require.NoError(t, s.UpdateGPVProjection(ctx, "unknown", 1.0))
}

func TestListPlacesZipFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	other := merged("p2", "Elsewhere")
	other.ZipCode = "98502"
	_, err := s.UpsertPlaces(ctx, []model.Merged{merged("p1", "Brick House"), other})
	require.NoError(t, err)

	places, err := s.ListPlaces(ctx, Filter{Zip: "98502"})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "p2", places[0].PlaceID)
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := model.RunSummary{
		ID:         "run-1",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Fetched:    10,
		Matched:    7,
		Failed:     3,
	}
	require.NoError(t, s.RecordRun(ctx, run))

	var fetched, matched, failed int
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched, matched, failed FROM runs WHERE id = 'run-1'`,
	).Scan(&fetched, &matched, &failed)
	require.NoError(t, err)
	assert.Equal(t, 10, fetched)
	assert.Equal(t, 7, matched)
	assert.Equal(t, 3, failed)
}
