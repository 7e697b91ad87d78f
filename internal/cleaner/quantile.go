package cleaner

import (
	"math"
	"sort"

	"celltowers/internal/types"
)

// Quantile returns the q-th quantile of sorted using linear interpolation
// between the two nearest ranks (position q*(n-1)). ok is false for an empty
// input.
func Quantile(sorted []float64, q float64) (v float64, ok bool) {
	if len(sorted) == 0 {
		return 0, false
	}
	if q <= 0 {
		return sorted[0], true
	}
	if q >= 1 {
		return sorted[len(sorted)-1], true
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], true
	}
	return lerp(sorted[lo], sorted[hi], pos-float64(lo)), true
}

// lerp interpolates from a to b. Both branches return a or b exactly when
// a == b, so a band over repeated values never excludes those values.
func lerp(a, b, t float64) float64 {
	if t < 0.5 {
		return a + (b-a)*t
	}
	return b - (b-a)*(1-t)
}

// band computes the [lower, upper] quantile interval of values without
// modifying it.
func band(values []float64, lower, upper float64) (types.Bounds, bool) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, ok := Quantile(sorted, lower)
	if !ok {
		return types.Bounds{}, false
	}
	hi, _ := Quantile(sorted, upper)
	return types.Bounds{Lower: lo, Upper: hi}, true
}
