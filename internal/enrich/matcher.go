package enrich

import (
	"context"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/model"
	"github.com/sells-group/leadscan/internal/netcheck"
	"github.com/sells-group/leadscan/internal/store"
	"github.com/sells-group/leadscan/pkg/yelp"
)

// Config tunes the Yelp matcher.
type Config struct {
	// MatchThreshold is the minimum token-set similarity (0–100) for a
	// search candidate to be accepted. A score equal to the threshold
	// passes.
	MatchThreshold int

	// MaxCandidates is how many search results to score per record.
	MaxCandidates int
}

// Result reports matcher outcome counts for one run.
type Result struct {
	Matched int
	Failed  int
}

// Matcher resolves canonical places against Yelp and copies enrichment
// fields back into the store.
type Matcher struct {
	client yelp.Client
	store  store.Store
	probe  netcheck.Probe
	cfg    Config
}

// NewMatcher wires the secondary-source matcher.
func NewMatcher(client yelp.Client, st store.Store, probe netcheck.Probe, cfg Config) *Matcher {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = 70
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 5
	}
	return &Matcher{client: client, store: st, probe: probe, cfg: cfg}
}

// Run matches every eligible stored place. Records iterate sequentially:
// each one is a chain of dependent calls (search, fallback, update).
// Per-record search errors degrade to "no candidates" and fall through the
// fallback chain; only store failures abort.
func (m *Matcher) Run(ctx context.Context) (Result, error) {
	if !m.probe.Check(ctx) {
		zap.L().Warn("enrich: skipped, network unreachable")
		return Result{}, nil
	}

	rows, err := m.store.Unenriched(ctx)
	if err != nil {
		return Result{}, eris.Wrap(err, "enrich: query candidates")
	}
	zap.L().Info("enrich: queued records", zap.Int("count", len(rows)))

	var res Result
	for _, place := range rows {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "enrich: canceled")
		}
		matched, err := m.matchOne(ctx, place)
		if err != nil {
			return res, err
		}
		if matched {
			res.Matched++
		} else {
			res.Failed++
		}
	}

	zap.L().Info("enrich: done",
		zap.Int("matched", res.Matched),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (m *Matcher) matchOne(ctx context.Context, place model.Place) (bool, error) {
	log := zap.L().With(zap.String("place_id", place.PlaceID), zap.String("name", place.Name))

	if biz := m.searchBest(ctx, place); biz != nil {
		if err := m.store.UpdateEnrichment(ctx, place.PlaceID, enrichmentFrom(biz)); err != nil {
			return false, err
		}
		return true, nil
	}

	// Phone fallback: a phone hit is ground truth, no threshold applies.
	if biz := m.phoneLookup(ctx, place); biz != nil {
		log.Debug("enrich: phone fallback hit")
		if err := m.store.UpdateEnrichment(ctx, place.PlaceID, enrichmentFrom(biz)); err != nil {
			return false, err
		}
		return true, nil
	}

	// Both searches missed. Carry the primary source's categories over as
	// best-effort titles so a failed match still yields usable data.
	titles := carryOverTitles(place.Categories)
	if err := m.store.MarkEnrichmentFailed(ctx, place.PlaceID, titles); err != nil {
		return false, err
	}
	log.Debug("enrich: no acceptable match")
	return false, nil
}

// searchBest runs the name+location search and returns the best-scoring
// candidate at or above the threshold, or nil.
func (m *Matcher) searchBest(ctx context.Context, place model.Place) *yelp.Business {
	params := yelp.SearchParams{
		Term:  place.Name,
		Limit: m.cfg.MaxCandidates,
	}
	if place.Lat != nil && place.Lon != nil {
		params.Lat = place.Lat
		params.Lon = place.Lon
	} else {
		loc := strings.TrimSpace(strings.Join(nonEmpty(place.City, place.State), ", "))
		if loc == "" {
			return nil
		}
		params.Location = loc
	}

	candidates, err := m.client.Search(ctx, params)
	if err != nil {
		// Recoverable: treat as no candidates and let fallbacks run.
		zap.L().Warn("enrich: search failed", zap.String("name", place.Name), zap.Error(err))
		return nil
	}

	var (
		best      *yelp.Business
		bestScore int
	)
	for i, cand := range candidates {
		score := fuzzy.TokenSetRatio(place.Name, cand.Name)
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}
	if best == nil || bestScore < m.cfg.MatchThreshold {
		return nil
	}
	return best
}

func (m *Matcher) phoneLookup(ctx context.Context, place model.Place) *yelp.Business {
	phone := place.IntlPhone
	if phone == "" {
		phone = place.LocalPhone
	}
	if phone == "" {
		return nil
	}

	hits, err := m.client.PhoneSearch(ctx, phone)
	if err != nil {
		zap.L().Warn("enrich: phone search failed", zap.String("name", place.Name), zap.Error(err))
		return nil
	}
	if len(hits) == 0 {
		return nil
	}
	return &hits[0]
}

func enrichmentFrom(biz *yelp.Business) store.Enrichment {
	var aliases, titles []string
	for _, c := range biz.Categories {
		if c.Alias != "" {
			aliases = append(aliases, c.Alias)
		}
		if c.Title != "" {
			titles = append(titles, c.Title)
		}
	}

	e := store.Enrichment{
		Rating:  biz.Rating,
		Reviews: biz.ReviewCount,
	}
	if biz.Price != "" {
		e.PriceTier = &biz.Price
	}
	if len(aliases) > 0 {
		joined := strings.Join(aliases, ",")
		e.Cuisines = &joined
		e.PrimaryCuisine = &aliases[0]
	}
	if len(titles) > 0 {
		joined := strings.Join(titles, ",")
		e.CategoryTitles = &joined
	}
	return e
}

// carryOverTitles turns primary-source category tokens ("meal_takeaway")
// into human-readable titles ("Meal Takeaway").
func carryOverTitles(categories string) *string {
	if categories == "" {
		return nil
	}
	var titles []string
	for _, tok := range strings.Split(categories, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		words := strings.Split(strings.ReplaceAll(tok, "_", " "), " ")
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		titles = append(titles, strings.Join(words, " "))
	}
	if len(titles) == 0 {
		return nil
	}
	joined := strings.Join(titles, ",")
	return &joined
}

func nonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
