// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/mix-optimizer/pkg/constants"
)

// WithinRelativeTolerance checks whether two values agree to a relative
// tolerance of the larger magnitude. Values near zero compare absolutely.
func WithinRelativeTolerance(val1, val2, tolerance float64) bool {
	scale := math.Max(math.Abs(val1), math.Abs(val2))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(val1-val2) <= tolerance*scale
}

// SafeDivide returns numerator/denominator, or 0 when the denominator is 0.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// PercentChange returns the change from before to after as a percentage of
// before, with before floored at 1.
func PercentChange(before, after float64) float64 {
	return (after - before) / math.Max(before, 1) * constants.PercentageMultiplier
}
