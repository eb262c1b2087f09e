package geo

import (
	"math"
)

// Geometry quality labels derived from the GDOP value.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
	QualityBad       = "bad"
)

// condLimit is the normal-matrix condition number beyond which plain
// inversion is abandoned for the damped fallback.
const condLimit = 1e12

// ECEF is an earth-centered cartesian position in km.
type ECEF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ToECEF converts a geodetic position to cartesian coordinates on a
// spherical earth.
func ToECEF(p Position) ECEF {
	r := EarthRadiusKM + p.AltKM
	lat := p.Lat * math.Pi / 180
	lon := p.Lon * math.Pi / 180
	return ECEF{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

// DOPResult carries the dilution-of-precision values for one observer
// against a set of platforms. Callers must check OK before using the values.
type DOPResult struct {
	OK            bool    `json:"ok"`
	Reason        string  `json:"reason,omitempty"`
	GDOP          float64 `json:"gdop"`
	PDOP          float64 `json:"pdop"`
	HDOP          float64 `json:"hdop"`
	VDOP          float64 `json:"vdop"`
	TDOP          float64 `json:"tdop"`
	Quality       string  `json:"quality,omitempty"`
	PlatformCount int     `json:"platform_count"`
}

func dopFailure(reason string, count int) DOPResult {
	return DOPResult{OK: false, Reason: reason, PlatformCount: count}
}

// GDOP computes the geometric dilution of precision for observer given the
// platform positions. It requires at least 4 platforms at distinct,
// non-degenerate geometry; failures come back as a flagged result, never a
// panic or error.
func GDOP(platforms []ECEF, observer ECEF) DOPResult {
	if len(platforms) < 4 {
		return dopFailure("need at least 4 platforms", len(platforms))
	}

	// Design matrix rows: unit line-of-sight vector plus a clock column.
	var design [][4]float64
	for _, sat := range platforms {
		dx := sat.X - observer.X
		dy := sat.Y - observer.Y
		dz := sat.Z - observer.Z
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if dist < 1e-6 || math.IsNaN(dist) || math.IsInf(dist, 0) {
			continue
		}
		design = append(design, [4]float64{dx / dist, dy / dist, dz / dist, 1})
	}
	if len(design) < 4 {
		return dopFailure("fewer than 4 usable platform geometries", len(platforms))
	}

	// Normal matrix N = AᵗA.
	var n [4][4]float64
	for _, row := range design {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				n[i][j] += row[i] * row[j]
			}
		}
	}

	q, ok := invert4(n)
	if !ok || conditionEstimate(n, q) > condLimit {
		// Damped pseudo-inverse stand-in: regularize the diagonal and retry.
		damped := n
		lambda := 1e-9 * (n[0][0] + n[1][1] + n[2][2] + n[3][3])
		if lambda <= 0 {
			lambda = 1e-9
		}
		for i := 0; i < 4; i++ {
			damped[i][i] += lambda
		}
		q, ok = invert4(damped)
		if !ok {
			return dopFailure("normal matrix singular", len(platforms))
		}
	}

	q11, q22, q33, q44 := q[0][0], q[1][1], q[2][2], q[3][3]
	for _, v := range []float64{q11, q22, q33, q44} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return dopFailure("non-positive weight diagonal", len(platforms))
		}
	}
	sum := q11 + q22 + q33 + q44
	if sum < 0 {
		return dopFailure("negative GDOP square", len(platforms))
	}

	gdop := math.Sqrt(sum)
	return DOPResult{
		OK:            true,
		GDOP:          gdop,
		PDOP:          math.Sqrt(q11 + q22 + q33),
		HDOP:          math.Sqrt(q11 + q22),
		VDOP:          math.Sqrt(q33),
		TDOP:          math.Sqrt(q44),
		Quality:       QualityLabel(gdop),
		PlatformCount: len(platforms),
	}
}

// QualityLabel maps a GDOP value onto its quality band.
func QualityLabel(gdop float64) string {
	switch {
	case gdop <= 1:
		return QualityExcellent
	case gdop <= 2:
		return QualityGood
	case gdop <= 5:
		return QualityFair
	case gdop <= 10:
		return QualityPoor
	default:
		return QualityBad
	}
}

// invert4 inverts a 4x4 matrix by Gauss-Jordan elimination with partial
// pivoting. ok is false when a pivot collapses.
func invert4(m [4][4]float64) ([4][4]float64, bool) {
	var aug [4][8]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			aug[i][j] = m[i][j]
		}
		aug[i][4+i] = 1
	}

	for col := 0; col < 4; col++ {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-15 {
			return [4][4]float64{}, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		p := aug[col][col]
		for j := 0; j < 8; j++ {
			aug[col][j] /= p
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := aug[r][col]
			for j := 0; j < 8; j++ {
				aug[r][j] -= f * aug[col][j]
			}
		}
	}

	var inv [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			inv[i][j] = aug[i][4+j]
			if math.IsNaN(inv[i][j]) || math.IsInf(inv[i][j], 0) {
				return [4][4]float64{}, false
			}
		}
	}
	return inv, true
}

// conditionEstimate returns the 1-norm condition estimate ‖N‖·‖N⁻¹‖.
func conditionEstimate(m, inv [4][4]float64) float64 {
	return norm1(m) * norm1(inv)
}

func norm1(m [4][4]float64) float64 {
	max := 0.0
	for j := 0; j < 4; j++ {
		sum := 0.0
		for i := 0; i < 4; i++ {
			sum += math.Abs(m[i][j])
		}
		if sum > max {
			max = sum
		}
	}
	return max
}
