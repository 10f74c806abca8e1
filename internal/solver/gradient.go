package solver

import (
	"math"

	"github.com/iwvelando/mix-optimizer/internal/config"
	"gonum.org/v1/gonum/floats"
)

const (
	// armijo is the sufficient-increase fraction of the backtracking search.
	armijo = 1e-4
	// maxBacktracks bounds the step halvings per iteration.
	maxBacktracks = 60
)

// ProjectedGradientName labels results produced by projected gradient ascent.
const ProjectedGradientName = "ProjectedGradient"

// ProjectedGradient climbs the profit along its gradient, projecting every
// trial point back onto the bounds and the budget. It runs for any algorithm
// name.
type ProjectedGradient struct{}

// Name implements Strategy.
func (ProjectedGradient) Name(string) string {
	return ProjectedGradientName
}

// Solve implements Strategy.
func (ProjectedGradient) Solve(p *Problem, x0 []float64, _ string, settings config.SolverConfig) (Solution, error) {
	n := p.Dim()
	x, err := p.Project(x0)
	if err != nil {
		return Solution{}, err
	}
	if n == 0 {
		return Solution{X: x}, nil
	}

	grad := make([]float64, n)
	step := math.Max(p.Budget, 1)
	f := p.Profit(x)
	evaluations := 1
	iterations := 0

	for evaluations < settings.MaxEvaluations {
		iterations++
		p.Gradient(grad, x)
		if gmax := floats.Norm(grad, math.Inf(1)); gmax > 0 {
			// first trial moves the steepest coordinate by at most twice the last step
			step = math.Min(step*2, math.Max(p.Budget, 1)/gmax)
		} else {
			break
		}

		var (
			candidate []float64
			fc        float64
			accepted  bool
		)
		trial := make([]float64, n)
		for k := 0; k < maxBacktracks && evaluations < settings.MaxEvaluations; k++ {
			floats.AddScaledTo(trial, x, step, grad)
			candidate, err = p.Project(trial)
			if err != nil {
				return Solution{}, err
			}
			fc = p.Profit(candidate)
			evaluations++
			gain := 0.0
			for i := range grad {
				gain += grad[i] * (candidate[i] - x[i])
			}
			if fc >= f+armijo*gain && gain >= 0 {
				accepted = true
				break
			}
			step /= 2
		}
		if !accepted {
			break
		}

		moved := maxAbsDiff(candidate, x)
		improvement := fc - f
		x, f = candidate, fc
		if moved <= settings.XTolRel*math.Max(floats.Norm(x, math.Inf(1)), 1) {
			break
		}
		if improvement <= settings.FTolRel*math.Max(math.Abs(f), 1) {
			break
		}
	}

	return Solution{X: x, Profit: f, Iterations: iterations}, nil
}
