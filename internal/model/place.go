package model

import "time"

// MatchStatus tracks the outcome of secondary-source (Yelp) matching for
// a stored place.
type MatchStatus string

const (
	// MatchUnset means the matcher has never touched the row.
	MatchUnset MatchStatus = ""
	// MatchSuccess means an accepted Yelp match populated the yelp_* columns.
	MatchSuccess MatchStatus = "SUCCESS"
	// MatchFail means both the fuzzy search and the phone fallback missed;
	// category titles may still carry best-effort data.
	MatchFail MatchStatus = "FAIL"
)

// LegacyMatchStatuses are placeholder values written by an earlier schema
// ('open'/'closed' mirrored Yelp's is_closed flag). Rows carrying them are
// re-queued for matching.
var LegacyMatchStatuses = []string{"open", "closed"}

// Source tags in priority order. The SMB-filtered Google feed outranks the
// unfiltered one, which outranks everything else.
const (
	SourceGoogleSMB = "google_places_smb"
	SourceGoogle    = "google_places"
	SourceGovCSV    = "gov_csv"
	SourceOSM       = "osm"
	SourceGPV       = "gpv_projection"
)

// SourcePriority ranks a source tag for dedupe winner selection. Higher wins.
func SourcePriority(tag string) int {
	switch tag {
	case SourceGoogleSMB:
		return 2
	case SourceGoogle:
		return 1
	default:
		return 0
	}
}

// Hours maps a three-letter day name to a normalized time range
// ("9 AM – 5 PM").
type Hours map[string]string

// RawRecord is one result from one source before reconciliation. Fetchers
// produce these; the dedupe engine consumes them. Immutable once produced.
type RawRecord struct {
	PlaceID          string
	Name             string
	FormattedAddress string
	Street           string
	City             string
	State            string
	ZipCode          string
	Lat              *float64
	Lon              *float64
	Rating           *float64
	UserRatingsTotal *int
	PriceLevel       *int
	BusinessStatus   string
	LocalPhone       string
	IntlPhone        string
	Website          string
	PhotoRef         string
	Categories       []string
	Hours            Hours
	DistanceMiles    *float64
	GPVProjection    *float64
	Source           string
	LastSeen         time.Time
}

// Merged is the dedupe engine's output: one record per physical business
// plus provenance.
type Merged struct {
	RawRecord

	// AppearedIn is the sorted, de-duplicated union of every source tag
	// that contributed a member to the dedupe group.
	AppearedIn []string

	// NeedsVerification is set when no Google-sourced record backed the
	// group, i.e. the business was seen only by lower-trust sources.
	NeedsVerification bool
}

// Place is the canonical persisted entity, keyed by the Google place_id.
type Place struct {
	PlaceID           string     `json:"place_id"`
	Name              string     `json:"name"`
	FormattedAddress  string     `json:"formatted_address"`
	City              string     `json:"city,omitempty"`
	State             string     `json:"state,omitempty"`
	ZipCode           string     `json:"zip_code,omitempty"`
	Lat               *float64   `json:"lat"`
	Lon               *float64   `json:"lon"`
	Rating            *float64   `json:"rating,omitempty"`
	UserRatingsTotal  *int       `json:"user_ratings_total,omitempty"`
	PriceLevel        *int       `json:"price_level,omitempty"`
	BusinessStatus    string     `json:"business_status,omitempty"`
	LocalPhone        string     `json:"local_phone,omitempty"`
	IntlPhone         string     `json:"intl_phone,omitempty"`
	Website           string     `json:"website,omitempty"`
	PhotoRef          string     `json:"photo_ref,omitempty"`
	Categories        string     `json:"categories,omitempty"` // comma-joined source category tokens
	Category          string     `json:"category,omitempty"`   // first category token
	OpeningHours      string     `json:"opening_hours,omitempty"`
	DistanceMiles     *float64   `json:"distance_miles,omitempty"`
	Source            string     `json:"source,omitempty"`
	AppearedIn        string     `json:"appeared_in,omitempty"` // comma-joined provenance tags
	NeedsVerification bool       `json:"needs_verification"`
	FirstSeen         *time.Time `json:"first_seen,omitempty"`
	LastSeen          *time.Time `json:"last_seen,omitempty"`

	YelpRating         *float64    `json:"yelp_rating,omitempty"`
	YelpReviews        *int        `json:"yelp_reviews,omitempty"`
	YelpPriceTier      *string     `json:"yelp_price_tier,omitempty"`
	YelpStatus         MatchStatus `json:"yelp_status,omitempty"`
	YelpCuisines       *string     `json:"yelp_cuisines,omitempty"`
	YelpPrimaryCuisine *string     `json:"yelp_primary_cuisine,omitempty"`
	YelpCategoryTitles *string     `json:"yelp_category_titles,omitempty"`

	FacebookURL   *string  `json:"facebook_url,omitempty"`
	InstagramURL  *string  `json:"instagram_url,omitempty"`
	GPVProjection *float64 `json:"gpv_projection,omitempty"`
}

// RunSummary records the outcome counts of one pipeline run.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Matched    int
	Failed     int
}
