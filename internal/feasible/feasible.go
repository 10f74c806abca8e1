// Package feasible projects spend vectors onto the region allowed by
// per-channel bounds and a total budget.
package feasible

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInfeasible is returned when no vector satisfies the bounds and budget.
var ErrInfeasible = errors.New("bounds and budget are infeasible")

// bisectionSteps bounds the multiplier search; 200 halvings exhaust float64
// precision for any finite bracket.
const bisectionSteps = 200

// Box holds per-variable lower and upper bounds. Upper bounds may be +Inf.
type Box struct {
	Lower []float64
	Upper []float64
}

// NewBox validates and returns a box.
func NewBox(lower, upper []float64) (Box, error) {
	if len(lower) != len(upper) {
		return Box{}, fmt.Errorf("bounds length mismatch: %d lower, %d upper", len(lower), len(upper))
	}
	for i := range lower {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) || lower[i] > upper[i] {
			return Box{}, fmt.Errorf("variable %d: lower %v exceeds upper %v", i, lower[i], upper[i])
		}
	}
	return Box{Lower: lower, Upper: upper}, nil
}

// Dim returns the number of variables.
func (b Box) Dim() int {
	return len(b.Lower)
}

// Clip clamps x into the box in place.
func (b Box) Clip(x []float64) {
	for i := range x {
		x[i] = math.Min(math.Max(x[i], b.Lower[i]), b.Upper[i])
	}
}

// Contains reports whether x lies within the box up to tol.
func (b Box) Contains(x []float64, tol float64) bool {
	for i := range x {
		if x[i] < b.Lower[i]-tol || x[i] > b.Upper[i]+tol {
			return false
		}
	}
	return true
}

// MinTotal is the smallest total the box admits.
func (b Box) MinTotal() float64 {
	return floats.Sum(b.Lower)
}

// MaxTotal is the largest total the box admits, possibly +Inf.
func (b Box) MaxTotal() float64 {
	return floats.Sum(b.Upper)
}

// ProjectBudget returns the Euclidean projection of x onto
// {Lower <= y <= Upper, sum(y) <= budget}.
func (b Box) ProjectBudget(x []float64, budget float64) ([]float64, error) {
	if b.MinTotal() > budget {
		return nil, fmt.Errorf("%w: minimum spend %.2f exceeds budget %.2f", ErrInfeasible, b.MinTotal(), budget)
	}
	y := append([]float64(nil), x...)
	b.Clip(y)
	if floats.Sum(y) <= budget {
		return y, nil
	}
	return b.shiftToTotal(x, budget), nil
}

// ProjectTotal returns the Euclidean projection of x onto
// {Lower <= y <= Upper, sum(y) == total}.
func (b Box) ProjectTotal(x []float64, total float64) ([]float64, error) {
	if b.MinTotal() > total {
		return nil, fmt.Errorf("%w: minimum spend %.2f exceeds total %.2f", ErrInfeasible, b.MinTotal(), total)
	}
	if b.MaxTotal() < total {
		return nil, fmt.Errorf("%w: maximum spend %.2f is below total %.2f", ErrInfeasible, b.MaxTotal(), total)
	}
	return b.shiftToTotal(x, total), nil
}

// shiftToTotal finds lambda with sum(clip(x + lambda)) == total by bisection.
// The caller guarantees MinTotal <= total <= MaxTotal.
func (b Box) shiftToTotal(x []float64, total float64) []float64 {
	n := len(x)
	y := make([]float64, n)
	if n == 0 {
		return y
	}

	lo := math.Inf(1)
	hi := math.Abs(total)
	for i := range x {
		lo = math.Min(lo, b.Lower[i]-x[i])
		hi = math.Max(hi, math.Abs(total)+math.Abs(x[i]))
		if !math.IsInf(b.Upper[i], 1) {
			hi = math.Max(hi, b.Upper[i]-x[i])
		}
	}

	shifted := func(lambda float64) float64 {
		for i := range x {
			y[i] = math.Min(math.Max(x[i]+lambda, b.Lower[i]), b.Upper[i])
		}
		return floats.Sum(y)
	}

	for step := 0; step < bisectionSteps && hi-lo > 0; step++ {
		mid := lo + (hi-lo)/2
		if mid == lo || mid == hi {
			break
		}
		if shifted(mid) < total {
			lo = mid
		} else {
			hi = mid
		}
	}
	shifted(hi)

	// hand any rounding residue to the first variable with room for it
	residue := total - floats.Sum(y)
	for i := range y {
		if residue == 0 {
			break
		}
		adjusted := math.Min(math.Max(y[i]+residue, b.Lower[i]), b.Upper[i])
		residue -= adjusted - y[i]
		y[i] = adjusted
	}
	return y
}
