package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/enrich"
	"github.com/sells-group/leadscan/internal/fetch"
	"github.com/sells-group/leadscan/internal/netcheck"
	"github.com/sells-group/leadscan/internal/resilience"
	"github.com/sells-group/leadscan/internal/store"
	"github.com/sells-group/leadscan/pkg/places"
	"github.com/sells-group/leadscan/pkg/yelp"
)

// env bundles the long-lived dependencies commands share.
type env struct {
	Store    store.Store
	Places   places.Client
	Yelp     yelp.Client
	Probe    netcheck.Probe
	Fetchers []fetch.Registered
	Matcher  *enrich.Matcher
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// initEnv builds the dependency graph from loaded config.
func initEnv() (*env, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	probe := netcheck.NewHTTP(cfg.Netcheck)

	placesClient := places.NewClient(cfg.Google.Key,
		places.WithBaseURL(cfg.Google.BaseURL),
		places.WithRateLimit(cfg.Google.RateLimit),
	)
	yelpClient := yelp.NewClient(cfg.Yelp.Key, yelp.WithBaseURL(cfg.Yelp.BaseURL))

	blocklist, err := fetch.LoadBlocklist(cfg.Fetch.BlocklistPath)
	if err != nil {
		return nil, eris.Wrap(err, "load blocklist")
	}

	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("google", "details")

	placesFetcher := fetch.NewPlacesFetcher(placesClient, probe, blocklist, fetch.PlacesConfig{
		State:     cfg.Fetch.State,
		MaxPages:  cfg.Google.MaxPages,
		PageSleep: time.Duration(cfg.Google.PageSleepSecs) * time.Second,
		Workers:   cfg.Google.Workers,
		RefLat:    cfg.Fetch.RefLat,
		RefLon:    cfg.Fetch.RefLon,
		Retry:     retry,
	})

	fetchers := []fetch.Registered{
		{Fetcher: placesFetcher, Enabled: true},
		{Fetcher: fetch.GovCSVFetcher{}, Enabled: false},
		{Fetcher: fetch.OSMFetcher{Probe: probe}, Enabled: false},
		{Fetcher: fetch.GPVFetcher{Path: cfg.Fetch.GPVCSVPath}, Enabled: cfg.Fetch.GPVCSVPath != ""},
	}

	matcher := enrich.NewMatcher(yelpClient, st, probe, enrich.Config{
		MatchThreshold: cfg.Yelp.MatchThreshold,
		MaxCandidates:  cfg.Yelp.MaxCandidates,
	})

	return &env{
		Store:    st,
		Places:   placesClient,
		Yelp:     yelpClient,
		Probe:    probe,
		Fetchers: fetchers,
		Matcher:  matcher,
	}, nil
}
