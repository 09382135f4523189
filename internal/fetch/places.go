package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscan/internal/geo"
	"github.com/sells-group/leadscan/internal/model"
	"github.com/sells-group/leadscan/internal/netcheck"
	"github.com/sells-group/leadscan/internal/resilience"
	"github.com/sells-group/leadscan/pkg/places"
)

// PlacesConfig tunes the paged Google Places fetcher.
type PlacesConfig struct {
	// State is appended to the search query ("restaurants in 98501 WA").
	State string

	// MaxPages caps pagination per ZIP against a misbehaving upstream.
	MaxPages int

	// PageSleep is the fixed wait before requesting a continuation page,
	// required by the Places pagination contract.
	PageSleep time.Duration

	// Workers bounds the concurrent details calls per page.
	Workers int

	// RefLat/RefLon anchor the distance column.
	RefLat float64
	RefLon float64

	// Retry is the policy for details calls. Exhausting it fails the run.
	Retry resilience.RetryConfig
}

// PlacesFetcher pages through Google Places text search for each ZIP and
// enriches every non-blocklisted result with a details call.
type PlacesFetcher struct {
	client    places.Client
	probe     netcheck.Probe
	blocklist Blocklist
	cfg       PlacesConfig
}

// NewPlacesFetcher wires the primary-source fetcher.
func NewPlacesFetcher(client places.Client, probe netcheck.Probe, blocklist Blocklist, cfg PlacesConfig) *PlacesFetcher {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 15
	}
	if cfg.PageSleep <= 0 {
		cfg.PageSleep = 2 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &PlacesFetcher{client: client, probe: probe, blocklist: blocklist, cfg: cfg}
}

func (f *PlacesFetcher) Name() string { return model.SourceGoogleSMB }

// Fetch returns enriched records for every ZIP. Search failures and
// exhausted details retries are fatal: downstream stages assume a complete
// page-set per ZIP.
func (f *PlacesFetcher) Fetch(ctx context.Context, zips []string) ([]model.RawRecord, error) {
	if !f.probe.Check(ctx) {
		return nil, eris.New("fetch: network unreachable")
	}

	var records []model.RawRecord
	for _, zip := range zips {
		log := zap.L().With(zap.String("zip", zip))
		log.Info("fetch: querying places")

		resp, err := f.client.TextSearch(ctx, fmt.Sprintf("restaurants in %s %s", zip, f.cfg.State))
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: search %s", zip)
		}

		for page := 1; ; page++ {
			log.Info("fetch: page received",
				zap.Int("page", page),
				zap.Int("results", len(resp.Results)),
			)

			pageRecords, err := f.enrichPage(ctx, zip, resp.Results)
			if err != nil {
				return nil, eris.Wrapf(err, "fetch: enrich page %d for %s", page, zip)
			}
			records = append(records, pageRecords...)

			if resp.NextPageToken == "" || page >= f.cfg.MaxPages {
				break
			}

			// The continuation token needs a moment to become valid upstream.
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "fetch: canceled")
			case <-time.After(f.cfg.PageSleep):
			}

			resp, err = f.client.NextPage(ctx, resp.NextPageToken)
			if err != nil {
				return nil, eris.Wrapf(err, "fetch: page %d for %s", page+1, zip)
			}
		}
	}

	zap.L().Info("fetch: collected records", zap.Int("count", len(records)))
	return records, nil
}

// enrichPage filters one page through the blocklist and fans the surviving
// results out to concurrent details calls. Results are collected in
// completion order; callers must not depend on sequence.
func (f *PlacesFetcher) enrichPage(ctx context.Context, zip string, results []places.Result) ([]model.RawRecord, error) {
	var accepted []places.Result
	for _, r := range results {
		if f.blocklist.Blocked(r.Name) {
			zap.L().Debug("fetch: blocklisted", zap.String("name", r.Name))
			continue
		}
		accepted = append(accepted, r)
	}

	var (
		mu      sync.Mutex
		records []model.RawRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)

	for _, r := range accepted {
		r := r
		g.Go(func() error {
			details, err := resilience.DoVal(gctx, f.cfg.Retry, func(ctx context.Context) (*places.Details, error) {
				return f.client.Details(ctx, r.PlaceID)
			})
			if err != nil {
				return eris.Wrapf(err, "fetch: details for %s", r.Name)
			}

			rec := f.buildRecord(zip, r, details)
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (f *PlacesFetcher) buildRecord(zip string, r places.Result, d *places.Details) model.RawRecord {
	street := strings.TrimSpace(places.Component(d.AddressComponents, "street_number") +
		" " + places.Component(d.AddressComponents, "route"))

	zipCode := places.Component(d.AddressComponents, "postal_code")
	if zipCode == "" {
		zipCode = zip
	}

	addr := r.FormattedAddress
	if addr == "" {
		addr = r.Vicinity
	}

	var hours model.Hours
	if d.OpeningHours != nil && len(d.OpeningHours.WeekdayText) > 0 {
		hours = NormalizeHours(ParseWeekdayText(d.OpeningHours.WeekdayText))
	}

	var photoRef string
	if len(d.Photos) > 0 {
		photoRef = d.Photos[0].PhotoReference
	}

	return model.RawRecord{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		FormattedAddress: addr,
		Street:           street,
		City:             places.Component(d.AddressComponents, "locality"),
		State:            places.Component(d.AddressComponents, "administrative_area_level_1"),
		ZipCode:          zipCode,
		Lat:              r.Geometry.Location.Lat,
		Lon:              r.Geometry.Location.Lng,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		PriceLevel:       d.PriceLevel,
		BusinessStatus:   r.BusinessStatus,
		LocalPhone:       d.FormattedPhoneNumber,
		IntlPhone:        d.InternationalPhoneNumber,
		Website:          d.Website,
		PhotoRef:         photoRef,
		Categories:       d.Types,
		Hours:            hours,
		DistanceMiles:    geo.MilesTo(r.Geometry.Location.Lat, r.Geometry.Location.Lng, f.cfg.RefLat, f.cfg.RefLon),
		Source:           model.SourceGoogleSMB,
		LastSeen:         time.Now().UTC(),
	}
}
