package geo

import "math"

// earthRadiusMiles is the mean Earth radius in statute miles.
const earthRadiusMiles = 3958.8

// Miles returns the great-circle (haversine) distance in miles between two
// lat/lon points. ok is false when any input is NaN.
func Miles(lat1, lon1, lat2, lon2 float64) (float64, bool) {
	for _, v := range []float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) {
			return 0, false
		}
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMiles * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)), true
}

// MilesTo computes the distance from nullable coordinates to a reference
// point, rounded to two decimals. Returns nil when either coordinate is
// missing or NaN rather than raising.
func MilesTo(lat, lon *float64, refLat, refLon float64) *float64 {
	if lat == nil || lon == nil {
		return nil
	}
	d, ok := Miles(*lat, *lon, refLat, refLon)
	if !ok {
		return nil
	}
	rounded := math.Round(d*100) / 100
	return &rounded
}
