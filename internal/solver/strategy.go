package solver

import (
	"errors"

	"github.com/iwvelando/mix-optimizer/internal/config"
)

// ErrUnavailable is returned by a strategy that cannot run the requested
// algorithm.
var ErrUnavailable = errors.New("solver unavailable for algorithm")

// Solution is a candidate allocation produced by a strategy.
type Solution struct {
	X          []float64
	Profit     float64
	Iterations int
}

// Strategy is one backend in the solver chain.
type Strategy interface {
	// Name returns the label recorded for a run of algorithm.
	Name(algorithm string) string
	// Solve maximizes the problem's profit from the feasible start x0.
	Solve(p *Problem, x0 []float64, algorithm string, settings config.SolverConfig) (Solution, error)
}

// DefaultStrategies returns the standard chain: the gonum minimizer, then
// projected gradient ascent, then the equal-split start.
func DefaultStrategies() []Strategy {
	return []Strategy{Gonum{}, ProjectedGradient{}, Fallback{}}
}

// Fallback returns the starting allocation unchanged.
type Fallback struct{}

// FallbackName labels results produced by the equal-split fallback.
const FallbackName = "Fallback"

// Name implements Strategy.
func (Fallback) Name(string) string {
	return FallbackName
}

// Solve implements Strategy. It never fails.
func (Fallback) Solve(p *Problem, x0 []float64, _ string, _ config.SolverConfig) (Solution, error) {
	x := append([]float64(nil), x0...)
	return Solution{X: x, Profit: p.Profit(x)}, nil
}
