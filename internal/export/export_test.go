package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadscan/internal/model"
)

func samplePlaces() []model.Place {
	lat, lon := 47.04, -122.9
	rating := 4.5
	reviews := 120
	price := 2
	gpv := 125000.5
	return []model.Place{
		{
			PlaceID:          "p1",
			Name:             "Brick House",
			FormattedAddress: "123 Main St, Olympia, WA 98501",
			City:             "Olympia",
			State:            "WA",
			ZipCode:          "98501",
			Lat:              &lat,
			Lon:              &lon,
			Rating:           &rating,
			UserRatingsTotal: &reviews,
			PriceLevel:       &price,
			Category:         "restaurant",
			AppearedIn:       "google_places_smb,osm",
			GPVProjection:    &gpv,
		},
		{
			PlaceID: "p2",
			Name:    "No Coordinates Deli",
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(samplePlaces(), path))

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	assert.Equal(t, "Restaurants", sheet.Name)
	// Header plus one row per place.
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Place ID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "p1", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Brick House", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "$$", sheet.Rows[1].Cells[13].String())
	assert.Equal(t, "p2", sheet.Rows[2].Cells[0].String())
}

func TestPriceSymbol(t *testing.T) {
	one, two, four, zero, six := 1, 2, 4, 0, 6
	assert.Empty(t, priceSymbol(nil))
	assert.Equal(t, "$", priceSymbol(&one))
	assert.Equal(t, "$", priceSymbol(&zero))
	assert.Equal(t, "$$", priceSymbol(&two))
	assert.Equal(t, "$$$$", priceSymbol(&four))
	assert.Equal(t, "$$$$", priceSymbol(&six))
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.geojson")
	require.NoError(t, WriteGeoJSON(samplePlaces(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	// The place without coordinates is skipped.
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "Point", f.Geometry.Type)
	require.Len(t, f.Geometry.Coordinates, 2)
	assert.Equal(t, -122.9, f.Geometry.Coordinates[0], "GeoJSON is lon,lat")
	assert.Equal(t, 47.04, f.Geometry.Coordinates[1])
	assert.Equal(t, "Brick House", f.Properties["name"])
	assert.Equal(t, "google_places_smb,osm", f.Properties["sources"])
	assert.Equal(t, 125000.5, f.Properties["gpv_projection"])
}
