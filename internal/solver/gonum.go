package solver

import (
	"fmt"
	"math"

	"github.com/iwvelando/mix-optimizer/internal/config"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// penaltyWeights are the successive weights of the bound and budget
// violations. Each round starts from the previous round's minimizer.
var penaltyWeights = []float64{1e1, 1e2, 1e3, 1e4, 1e5, 1e6}

// Gonum minimizes the negated profit with gonum's unconstrained methods on a
// quadratic-penalty form of the bounds and the budget, projects the minimizer
// onto the feasible set, and refines it there with projected gradient steps.
type Gonum struct{}

// Name implements Strategy.
func (Gonum) Name(algorithm string) string {
	return "Gonum-" + config.CanonicalAlgorithm(algorithm)
}

// method maps a solver algorithm name onto a gonum method.
func method(algorithm string) (optimize.Method, error) {
	switch config.CanonicalAlgorithm(algorithm) {
	case config.AlgorithmSLSQP:
		return &optimize.BFGS{}, nil
	case config.AlgorithmMMA:
		return &optimize.LBFGS{}, nil
	case config.AlgorithmAUGLAG:
		return &optimize.CG{}, nil
	case config.AlgorithmCOBYLA, config.AlgorithmBOBYQA:
		return &optimize.NelderMead{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, algorithm)
	}
}

// Solve implements Strategy.
func (Gonum) Solve(p *Problem, x0 []float64, algorithm string, settings config.SolverConfig) (Solution, error) {
	if _, err := method(algorithm); err != nil {
		return Solution{}, err
	}
	n := p.Dim()
	if n == 0 {
		return Solution{X: []float64{}}, nil
	}

	// work in budget units so the penalty is independent of currency scale
	scale := math.Max(p.Budget, 1)
	norm := p.Ceiling()
	if norm <= 0 {
		norm = 1
	}
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range lower {
		lower[i] = p.Box.Lower[i] / scale
		upper[i] = p.Box.Upper[i] / scale
	}
	limit := p.Budget / scale

	x := make([]float64, n)
	grad := make([]float64, n)
	z := make([]float64, n)
	floats.ScaleTo(z, 1/scale, x0)

	iterations := 0
	evaluations := 0
	for _, rho := range penaltyWeights {
		if evaluations >= settings.MaxEvaluations {
			break
		}
		problem := optimize.Problem{
			Func: func(z []float64) float64 {
				floats.ScaleTo(x, scale, z)
				return -p.Profit(x)/norm + rho*violation(z, lower, upper, limit)
			},
			Grad: func(dst, z []float64) {
				floats.ScaleTo(x, scale, z)
				p.Gradient(grad, x)
				excess := math.Max(0, floats.Sum(z)-limit)
				for i := range dst {
					d := -grad[i] * scale / norm
					d += 2 * rho * (math.Max(0, z[i]-upper[i]) - math.Max(0, lower[i]-z[i]) + excess)
					dst[i] = d
				}
			},
		}
		m, _ := method(algorithm)
		result, err := optimize.Minimize(problem, z, &optimize.Settings{
			MajorIterations: settings.MaxEvaluations,
			FuncEvaluations: settings.MaxEvaluations - evaluations,
			Converger: &optimize.FunctionConverge{
				Absolute:   settings.FTolRel * 1e-3,
				Relative:   settings.FTolRel,
				Iterations: 10,
			},
		}, m)
		if result == nil {
			return Solution{}, fmt.Errorf("gonum %s: %w", algorithm, err)
		}
		iterations += result.Stats.MajorIterations
		evaluations += result.Stats.FuncEvaluations
		if !finite(result.Location.X) {
			return Solution{}, fmt.Errorf("gonum %s: non-finite location", algorithm)
		}
		moved := maxAbsDiff(result.Location.X, z)
		copy(z, result.Location.X)
		if err != nil {
			break
		}
		if moved <= settings.XTolRel*math.Max(floats.Norm(z, math.Inf(1)), 1) && violation(z, lower, upper, limit) <= settings.ConstraintTolerance {
			break
		}
	}

	floats.ScaleTo(x, scale, z)
	projected, err := p.Project(x)
	if err != nil {
		return Solution{}, err
	}
	solution := Solution{X: projected, Profit: p.Profit(projected), Iterations: iterations}

	// penalty minimizers stop short of equal marginal returns on the budget face
	polish := settings
	polish.FTolRel *= constants.PolishTolerance
	polish.XTolRel *= constants.PolishTolerance
	polished, err := ProjectedGradient{}.Solve(p, projected, algorithm, polish)
	if err != nil {
		return Solution{}, fmt.Errorf("gonum %s polish: %w", algorithm, err)
	}
	if polished.Profit >= solution.Profit {
		solution.X, solution.Profit = polished.X, polished.Profit
	}
	solution.Iterations += polished.Iterations
	return solution, nil
}

// violation is the squared distance of z from the bounds plus the squared
// budget excess.
func violation(z, lower, upper []float64, limit float64) float64 {
	total := 0.0
	for i, v := range z {
		below := math.Max(0, lower[i]-v)
		above := math.Max(0, v-upper[i])
		total += below*below + above*above
	}
	excess := math.Max(0, floats.Sum(z)-limit)
	return total + excess*excess
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func maxAbsDiff(a, b []float64) float64 {
	diff := 0.0
	for i := range a {
		diff = math.Max(diff, math.Abs(a[i]-b[i]))
	}
	return diff
}
