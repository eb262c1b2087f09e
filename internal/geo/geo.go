// Geometry primitives shared by the distributor and visibility checks.
package geo

import (
	"math"
)

// EarthRadiusKM is the mean spherical earth radius.
const EarthRadiusKM = 6371.0

// Position holds latitude, longitude, and altitude above the surface in km.
type Position struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	AltKM float64 `json:"alt_km"`
}

// Valid reports whether the position contains finite, in-range coordinates.
func (p Position) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) && !math.IsNaN(p.AltKM) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0) && !math.IsInf(p.AltKM, 0) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// SphericalDistance returns the distance in km between two positions:
// haversine ground distance combined with the altitude difference via a
// Pythagorean sum. Malformed input yields +Inf rather than an error.
func SphericalDistance(a, b Position) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(h))
	ground := EarthRadiusKM * c

	dAlt := math.Abs(b.AltKM - a.AltKM)
	return math.Sqrt(ground*ground + dAlt*dAlt)
}

// Window is one contiguous run of trajectory samples within visibility range.
type Window struct {
	StartIndex      int     `json:"start_index"`
	EndIndex        int     `json:"end_index"`
	DurationSeconds float64 `json:"duration_seconds"`
	MinDistanceKM   float64 `json:"min_distance_km"`
}

// VisibilityWindows scans a time-ordered trajectory against the observer
// positions returned by platformPos and collects runs of samples whose
// distance stays at or below thresholdKM. A window still open at scan end is
// closed at the final index. sampleIntervalS is the spacing between samples.
func VisibilityWindows(trajectory []Position, platformPos func(i int) Position, thresholdKM, sampleIntervalS float64) []Window {
	var windows []Window
	start := -1
	minDist := math.Inf(1)

	closeWindow := func(end int) {
		windows = append(windows, Window{
			StartIndex:      start,
			EndIndex:        end,
			DurationSeconds: float64(end-start+1) * sampleIntervalS,
			MinDistanceKM:   minDist,
		})
		start = -1
		minDist = math.Inf(1)
	}

	for i, p := range trajectory {
		d := SphericalDistance(p, platformPos(i))
		if d <= thresholdKM {
			if start < 0 {
				start = i
			}
			if d < minDist {
				minDist = d
			}
			continue
		}
		if start >= 0 {
			closeWindow(i - 1)
		}
	}
	if start >= 0 {
		closeWindow(len(trajectory) - 1)
	}
	return windows
}

// Confidence scores a distance series in [0,1]: the average of a stability
// term (low variance) and a coverage term (window count, saturating at 3).
// Empty input degrades to 0.
func Confidence(distances []float64, windows []Window) float64 {
	if len(distances) == 0 {
		return 0
	}

	mean := 0.0
	for _, d := range distances {
		mean += d
	}
	mean /= float64(len(distances))

	variance := 0.0
	for _, d := range distances {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(distances))

	stability := math.Max(0, 1-variance/1e6)
	coverage := math.Min(1, float64(len(windows))/3)

	c := (stability + coverage) / 2
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(0, math.Min(1, c))
}
