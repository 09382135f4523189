package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadscan/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS places (
	place_id             TEXT PRIMARY KEY,
	name                 TEXT,
	formatted_address    TEXT,
	city                 TEXT,
	state                TEXT,
	zip_code             TEXT,
	lat                  REAL,
	lon                  REAL,
	rating               REAL,
	user_ratings_total   INTEGER,
	price_level          INTEGER,
	business_status      TEXT,
	local_phone          TEXT,
	intl_phone           TEXT,
	website              TEXT,
	photo_ref            TEXT,
	categories           TEXT,
	category             TEXT,
	opening_hours        TEXT,
	distance_miles       REAL,
	source               TEXT,
	appeared_in          TEXT,
	needs_verification   INTEGER NOT NULL DEFAULT 0,
	first_seen           TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	last_seen            TIMESTAMP,
	yelp_rating          REAL,
	yelp_reviews         INTEGER,
	yelp_price_tier      TEXT,
	yelp_status          TEXT,
	yelp_cuisines        TEXT,
	yelp_primary_cuisine TEXT,
	yelp_category_titles TEXT,
	facebook_url         TEXT,
	instagram_url        TEXT,
	gpv_projection       REAL
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	fetched     INTEGER NOT NULL DEFAULT 0,
	matched     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_places_zip ON places(zip_code);
CREATE INDEX IF NOT EXISTS idx_places_yelp_status ON places(yelp_status);
`

// addedColumns are enrichment columns introduced after the first schema
// revision. Migrate adds any that are missing so older databases keep
// working; columns are only ever added, never dropped or renamed.
var addedColumns = []struct{ name, typ string }{
	{"categories", "TEXT"},
	{"category", "TEXT"},
	{"opening_hours", "TEXT"},
	{"appeared_in", "TEXT"},
	{"needs_verification", "INTEGER NOT NULL DEFAULT 0"},
	{"yelp_cuisines", "TEXT"},
	{"yelp_primary_cuisine", "TEXT"},
	{"yelp_category_titles", "TEXT"},
	{"facebook_url", "TEXT"},
	{"instagram_url", "TEXT"},
	{"gpv_projection", "REAL"},
}

// Migrate creates the schema and applies additive column migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}

	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(places)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: table info")
	}
	defer rows.Close()

	existing := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return eris.Wrap(err, "sqlite: scan table info")
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: table info iterate")
	}

	for _, col := range addedColumns {
		if existing[col.name] {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`ALTER TABLE places ADD COLUMN `+col.name+` `+col.typ,
		); err != nil {
			return eris.Wrapf(err, "sqlite: add column %s", col.name)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const insertPlaceSQL = `
INSERT OR IGNORE INTO places (
	place_id, name, formatted_address, city, state, zip_code, lat, lon,
	rating, user_ratings_total, price_level, business_status,
	local_phone, intl_phone, website, photo_ref, categories, category,
	opening_hours, distance_miles, source, appeared_in, needs_verification,
	last_seen
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// UpsertPlaces inserts merged records, ignoring place_id conflicts so a
// re-run never overwrites existing rows. Records without a place_id are
// skipped: the primary key is the primary source's stable identifier.
func (s *SQLiteStore) UpsertPlaces(ctx context.Context, records []model.Merged) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	for _, rec := range records {
		if rec.PlaceID == "" {
			continue
		}

		var category string
		if len(rec.Categories) > 0 {
			category = rec.Categories[0]
		}

		res, err := tx.ExecContext(ctx, insertPlaceSQL,
			rec.PlaceID, rec.Name, rec.FormattedAddress, rec.City, rec.State, rec.ZipCode,
			rec.Lat, rec.Lon, rec.Rating, rec.UserRatingsTotal, rec.PriceLevel, rec.BusinessStatus,
			rec.LocalPhone, rec.IntlPhone, rec.Website, rec.PhotoRef,
			strings.Join(rec.Categories, ","), category,
			formatHoursColumn(rec.Hours), rec.DistanceMiles, rec.Source,
			strings.Join(rec.AppearedIn, ","), rec.NeedsVerification,
			rec.LastSeen.UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert place %s", rec.PlaceID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return inserted, nil
}

// TouchLastSeen refreshes last_seen for the given ids via explicit UPDATE.
func (s *SQLiteStore) TouchLastSeen(ctx context.Context, placeIDs []string) error {
	if len(placeIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin touch")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range placeIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE places SET last_seen = ? WHERE place_id = ?`, now, id,
		); err != nil {
			return eris.Wrapf(err, "sqlite: touch %s", id)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit touch")
}

const placeColumns = `place_id, name, formatted_address, city, state, zip_code, lat, lon,
	rating, user_ratings_total, price_level, business_status,
	local_phone, intl_phone, website, photo_ref, categories, category,
	opening_hours, distance_miles, source, appeared_in, needs_verification,
	first_seen, last_seen,
	yelp_rating, yelp_reviews, yelp_price_tier, yelp_status,
	yelp_cuisines, yelp_primary_cuisine, yelp_category_titles,
	facebook_url, instagram_url, gpv_projection`

// Unenriched selects rows the matcher should (re)process: never matched,
// carrying a legacy placeholder status, or still missing cuisine data.
func (s *SQLiteStore) Unenriched(ctx context.Context) ([]model.Place, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+placeColumns+` FROM places
		 WHERE yelp_status IS NULL
		    OR yelp_status IN ('open', 'closed')
		    OR yelp_cuisines IS NULL`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query unenriched")
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// UpdateEnrichment writes an accepted Yelp match and marks the row SUCCESS.
func (s *SQLiteStore) UpdateEnrichment(ctx context.Context, placeID string, e Enrichment) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE places SET
			yelp_rating          = ?,
			yelp_reviews         = ?,
			yelp_price_tier      = ?,
			yelp_cuisines        = ?,
			yelp_primary_cuisine = ?,
			yelp_category_titles = ?,
			yelp_status          = ?
		 WHERE place_id = ?`,
		e.Rating, e.Reviews, e.PriceTier, e.Cuisines, e.PrimaryCuisine, e.CategoryTitles,
		string(model.MatchSuccess), placeID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update enrichment %s", placeID)
	}
	return checkRowsAffected(res, "place", placeID)
}

// MarkEnrichmentFailed records a miss with best-effort category titles.
func (s *SQLiteStore) MarkEnrichmentFailed(ctx context.Context, placeID string, categoryTitles *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE places SET yelp_category_titles = ?, yelp_status = ? WHERE place_id = ?`,
		categoryTitles, string(model.MatchFail), placeID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark failed %s", placeID)
	}
	return checkRowsAffected(res, "place", placeID)
}

// UpdateGPVProjection sets the projected-volume column for one place.
// A missing place is not an error: projections can reference businesses
// outside the fetched geography.
func (s *SQLiteStore) UpdateGPVProjection(ctx context.Context, placeID string, gpv float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE places SET gpv_projection = ? WHERE place_id = ?`, gpv, placeID,
	)
	return eris.Wrapf(err, "sqlite: update gpv %s", placeID)
}

// ListPlaces returns stored places, optionally filtered by ZIP code.
func (s *SQLiteStore) ListPlaces(ctx context.Context, filter Filter) ([]model.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places`
	var args []any
	if filter.Zip != "" {
		query += ` WHERE zip_code = ?`
		args = append(args, filter.Zip)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list places")
	}
	defer rows.Close()

	return scanPlaces(rows)
}

func (s *SQLiteStore) CountPlaces(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count places")
}

// RecordRun persists the outcome counts of one pipeline run.
func (s *SQLiteStore) RecordRun(ctx context.Context, run model.RunSummary) error {
	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, fetched, matched, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Fetched, run.Matched, run.Failed,
	)
	return eris.Wrap(err, "sqlite: record run")
}

// helpers

func formatHoursColumn(hours model.Hours) string {
	if len(hours) == 0 {
		return ""
	}
	// Serialization order lives in the fetch package; the store only joins
	// what it is given when the caller did not pre-render.
	parts := make([]string, 0, len(hours))
	for _, day := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		if v, ok := hours[day]; ok {
			parts = append(parts, day+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func scanPlaces(rows *sql.Rows) ([]model.Place, error) {
	var places []model.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, *p)
	}
	return places, eris.Wrap(rows.Err(), "sqlite: iterate places")
}

func scanPlace(rows *sql.Rows) (*model.Place, error) {
	var (
		p          model.Place
		name       sql.NullString
		addr       sql.NullString
		city       sql.NullString
		state      sql.NullString
		zipCode    sql.NullString
		status     sql.NullString
		localPhone sql.NullString
		intlPhone  sql.NullString
		website    sql.NullString
		photoRef   sql.NullString
		categories sql.NullString
		category   sql.NullString
		hours      sql.NullString
		source     sql.NullString
		appearedIn sql.NullString
		yelpStatus sql.NullString
	)

	err := rows.Scan(
		&p.PlaceID, &name, &addr, &city, &state, &zipCode, &p.Lat, &p.Lon,
		&p.Rating, &p.UserRatingsTotal, &p.PriceLevel, &status,
		&localPhone, &intlPhone, &website, &photoRef, &categories, &category,
		&hours, &p.DistanceMiles, &source, &appearedIn, &p.NeedsVerification,
		&p.FirstSeen, &p.LastSeen,
		&p.YelpRating, &p.YelpReviews, &p.YelpPriceTier, &yelpStatus,
		&p.YelpCuisines, &p.YelpPrimaryCuisine, &p.YelpCategoryTitles,
		&p.FacebookURL, &p.InstagramURL, &p.GPVProjection,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan place")
	}

	p.Name = name.String
	p.FormattedAddress = addr.String
	p.City = city.String
	p.State = state.String
	p.ZipCode = zipCode.String
	p.BusinessStatus = status.String
	p.LocalPhone = localPhone.String
	p.IntlPhone = intlPhone.String
	p.Website = website.String
	p.PhotoRef = photoRef.String
	p.Categories = categories.String
	p.Category = category.String
	p.OpeningHours = hours.String
	p.Source = source.String
	p.AppearedIn = appearedIn.String
	p.YelpStatus = model.MatchStatus(yelpStatus.String)
	return &p, nil
}
