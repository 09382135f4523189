package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/dedupe"
	"github.com/sells-group/leadscan/internal/enrich"
	"github.com/sells-group/leadscan/internal/fetch"
	"github.com/sells-group/leadscan/internal/model"
	"github.com/sells-group/leadscan/internal/store"
)

// Options tunes one pipeline run.
type Options struct {
	// Zips are the target ZIP codes handed to every fetcher.
	Zips []string

	// StrictZips drops merged records whose ZIP code is not in Zips.
	// Text search bleeds across ZIP boundaries; strict mode keeps the
	// store limited to the requested geography.
	StrictZips bool
}

// Pipeline runs the full refresh: fetch from every enabled source, merge,
// persist, apply volume projections, then match against the secondary
// source.
type Pipeline struct {
	fetchers []fetch.Registered
	store    store.Store
	matcher  *enrich.Matcher // nil skips the matching stage
	opts     Options
}

// New assembles a pipeline over the given source registry.
func New(fetchers []fetch.Registered, st store.Store, matcher *enrich.Matcher, opts Options) *Pipeline {
	return &Pipeline{fetchers: fetchers, store: st, matcher: matcher, opts: opts}
}

// Run executes one refresh and records its outcome. Fetch-stage failures
// are fatal; a partial snapshot must not reach the store.
func (p *Pipeline) Run(ctx context.Context) (model.RunSummary, error) {
	run := model.RunSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("pipeline: starting", zap.Strings("zips", p.opts.Zips))

	if err := p.store.Migrate(ctx); err != nil {
		return run, eris.Wrap(err, "pipeline: migrate")
	}

	sets, gpvRecords, err := p.fetchAll(ctx)
	if err != nil {
		return run, err
	}

	merged := dedupe.Merge(sets...)
	if p.opts.StrictZips {
		merged = filterZips(merged, p.opts.Zips)
	}
	run.Fetched = len(merged)
	log.Info("pipeline: merged records", zap.Int("count", len(merged)))

	inserted, err := p.store.UpsertPlaces(ctx, merged)
	if err != nil {
		return run, eris.Wrap(err, "pipeline: upsert")
	}

	ids := make([]string, 0, len(merged))
	for _, m := range merged {
		if m.PlaceID != "" {
			ids = append(ids, m.PlaceID)
		}
	}
	if err := p.store.TouchLastSeen(ctx, ids); err != nil {
		return run, eris.Wrap(err, "pipeline: touch last seen")
	}
	log.Info("pipeline: persisted", zap.Int("inserted", inserted), zap.Int("refreshed", len(ids)))

	if err := p.applyProjections(ctx, gpvRecords); err != nil {
		return run, err
	}

	if p.matcher != nil {
		res, err := p.matcher.Run(ctx)
		if err != nil {
			// The snapshot is already persisted; a broken match stage is
			// reported, not fatal, unless the run itself was canceled.
			if ctx.Err() != nil {
				return run, eris.Wrap(err, "pipeline: match")
			}
			log.Error("pipeline: match stage failed", zap.Error(err))
		}
		run.Matched = res.Matched
		run.Failed = res.Failed
	}

	if total, err := p.store.CountPlaces(ctx); err == nil {
		log.Info("pipeline: store total", zap.Int("places", total))
	}

	run.FinishedAt = time.Now().UTC()
	if err := p.store.RecordRun(ctx, run); err != nil {
		return run, eris.Wrap(err, "pipeline: record run")
	}

	log.Info("pipeline: finished",
		zap.Int("fetched", run.Fetched),
		zap.Int("matched", run.Matched),
		zap.Int("failed", run.Failed),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// fetchAll runs every enabled fetcher sequentially. Projection-only records
// carry no identity fields, so they bypass the merge and come back
// separately for column-level application.
func (p *Pipeline) fetchAll(ctx context.Context) (sets [][]model.RawRecord, gpv []model.RawRecord, err error) {
	for _, reg := range p.fetchers {
		name := reg.Fetcher.Name()
		if !reg.Enabled {
			zap.L().Info("pipeline: source disabled", zap.String("source", name))
			continue
		}

		records, err := reg.Fetcher.Fetch(ctx, p.opts.Zips)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "pipeline: fetch %s", name)
		}
		zap.L().Info("pipeline: source fetched",
			zap.String("source", name),
			zap.Int("records", len(records)),
		)

		if name == model.SourceGPV {
			gpv = append(gpv, records...)
			continue
		}
		sets = append(sets, records)
	}
	return sets, gpv, nil
}

func filterZips(records []model.Merged, zips []string) []model.Merged {
	if len(zips) == 0 {
		return records
	}
	allowed := make(map[string]bool, len(zips))
	for _, z := range zips {
		allowed[z] = true
	}
	out := records[:0]
	for _, rec := range records {
		if allowed[rec.ZipCode] {
			out = append(out, rec)
		}
	}
	return out
}

func (p *Pipeline) applyProjections(ctx context.Context, records []model.RawRecord) error {
	applied := 0
	for _, rec := range records {
		if rec.PlaceID == "" || rec.GPVProjection == nil {
			continue
		}
		if err := p.store.UpdateGPVProjection(ctx, rec.PlaceID, *rec.GPVProjection); err != nil {
			return eris.Wrapf(err, "pipeline: apply projection for %s", rec.PlaceID)
		}
		applied++
	}
	if len(records) > 0 {
		zap.L().Info("pipeline: applied projections", zap.Int("count", applied))
	}
	return nil
}
