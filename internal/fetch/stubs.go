package fetch

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/model"
	"github.com/sells-group/leadscan/internal/netcheck"
)

// GovCSVFetcher is a placeholder for government license CSV imports.
type GovCSVFetcher struct{}

func (GovCSVFetcher) Name() string { return model.SourceGovCSV }

func (GovCSVFetcher) Fetch(context.Context, []string) ([]model.RawRecord, error) {
	zap.L().Info("fetch: government CSV import disabled")
	return []model.RawRecord{}, nil
}

// OSMFetcher is a placeholder for OpenStreetMap data.
type OSMFetcher struct {
	Probe netcheck.Probe
}

func (OSMFetcher) Name() string { return model.SourceOSM }

func (f OSMFetcher) Fetch(ctx context.Context, _ []string) ([]model.RawRecord, error) {
	if f.Probe != nil && !f.Probe.Check(ctx) {
		return nil, eris.New("fetch: network unreachable")
	}
	return []model.RawRecord{}, nil
}

// GPVFetcher reads projected payment-volume figures from a local CSV keyed
// by place_id. The pipeline applies them as column updates rather than
// feeding them through dedupe, since the rows carry no identity fields.
type GPVFetcher struct {
	Path string
}

func (GPVFetcher) Name() string { return model.SourceGPV }

func (f GPVFetcher) Fetch(_ context.Context, _ []string) ([]model.RawRecord, error) {
	if f.Path == "" {
		zap.L().Info("fetch: no GPV CSV configured")
		return []model.RawRecord{}, nil
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: open GPV CSV %s", f.Path)
	}
	defer file.Close() //nolint:errcheck

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read GPV CSV %s", f.Path)
	}
	if len(rows) == 0 {
		return []model.RawRecord{}, nil
	}

	idCol, gpvCol := -1, -1
	for i, h := range rows[0] {
		switch h {
		case "Place ID":
			idCol = i
		case "GPV Projection":
			gpvCol = i
		}
	}
	if idCol < 0 || gpvCol < 0 {
		return nil, eris.Errorf("fetch: GPV CSV %s missing 'Place ID' or 'GPV Projection' column", f.Path)
	}

	now := time.Now().UTC()
	var records []model.RawRecord
	for _, row := range rows[1:] {
		if idCol >= len(row) || gpvCol >= len(row) || row[idCol] == "" {
			continue
		}
		gpv, err := strconv.ParseFloat(row[gpvCol], 64)
		if err != nil {
			zap.L().Warn("fetch: bad GPV value", zap.String("place_id", row[idCol]), zap.String("value", row[gpvCol]))
			continue
		}
		records = append(records, model.RawRecord{
			PlaceID:       row[idCol],
			GPVProjection: &gpv,
			Source:        model.SourceGPV,
			LastSeen:      now,
		})
	}
	return records, nil
}
