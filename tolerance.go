// Package gust tolerance-based verification for reduced-precision comparisons
package gust

import (
	"math"
)

// ToleranceConfig defines tolerance parameters for comparing values that
// crossed the compact on-device format
type ToleranceConfig struct {
	// AbsTol is the absolute tolerance for values near zero
	AbsTol float64

	// RelTol is the relative tolerance as a fraction of the larger magnitude
	RelTol float64
}

// BFloat16Tolerance returns the tolerance implied by the bfloat16 round
// trip: 7 mantissa bits give at most 2^-8 relative error.
func BFloat16Tolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol: 1e-6,
		RelTol: 1.0 / 256.0,
	}
}

// RelaxedTolerance returns a looser bound for values that crossed the
// compact format more than once
func RelaxedTolerance() ToleranceConfig {
	return ToleranceConfig{
		AbsTol: 1e-4,
		RelTol: 0.01,
	}
}

// NearEqual checks if two float64 values are equal within tolerance
func NearEqual(a, b float64, tol ToleranceConfig) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	if diff <= tol.AbsTol {
		return true
	}
	larger := math.Max(math.Abs(a), math.Abs(b))
	return diff <= larger*tol.RelTol
}

// SlicesNearEqual checks element-wise near equality; slices of different
// lengths are never equal.
func SlicesNearEqual(a, b []float64, tol ToleranceConfig) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !NearEqual(a[i], b[i], tol) {
			return false
		}
	}
	return true
}
