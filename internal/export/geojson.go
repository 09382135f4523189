package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/model"
)

// WriteGeoJSON renders places as a GeoJSON FeatureCollection at path.
// Places without coordinates are skipped.
func WriteGeoJSON(places []model.Place, path string) error {
	fc := geojson.FeatureCollection{}
	skipped := 0

	for _, p := range places {
		if p.Lat == nil || p.Lon == nil {
			skipped++
			continue
		}

		props := map[string]any{
			"place_id":           p.PlaceID,
			"name":               p.Name,
			"address":            p.FormattedAddress,
			"city":               p.City,
			"state":              p.State,
			"zip":                p.ZipCode,
			"phone":              p.LocalPhone,
			"website":            p.Website,
			"category":           p.Category,
			"sources":            p.AppearedIn,
			"needs_verification": p.NeedsVerification,
		}
		if p.Rating != nil {
			props["rating"] = *p.Rating
		}
		if p.UserRatingsTotal != nil {
			props["reviews"] = *p.UserRatingsTotal
		}
		if p.YelpRating != nil {
			props["yelp_rating"] = *p.YelpRating
		}
		if p.YelpCuisines != nil {
			props["yelp_cuisines"] = *p.YelpCuisines
		}
		if p.DistanceMiles != nil {
			props["distance_miles"] = *p.DistanceMiles
		}
		if p.GPVProjection != nil {
			props["gpv_projection"] = *p.GPVProjection
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.PlaceID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{*p.Lon, *p.Lat}).SetSRID(4326),
			Properties: props,
		})
	}

	data, err := json.MarshalIndent(&fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal feature collection")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}

	zap.L().Info("export: wrote geojson",
		zap.String("path", path),
		zap.Int("features", len(fc.Features)),
		zap.Int("skipped_no_coords", skipped),
	)
	return nil
}
