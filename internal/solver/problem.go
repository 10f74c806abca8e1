package solver

import (
	"fmt"
	"math"

	"github.com/iwvelando/mix-optimizer/internal/curve"
	"github.com/iwvelando/mix-optimizer/internal/feasible"
	"github.com/iwvelando/mix-optimizer/internal/media"
	"gonum.org/v1/gonum/floats"
)

// Problem is the bounded profit maximization over a set of campaigns with a
// single budget inequality.
type Problem struct {
	Campaigns []media.Campaign
	Curves    []curve.Tanh
	Budget    float64
	Box       feasible.Box
}

// NewProblem builds the problem for campaigns. Curve and bound errors, and a
// budget below the summed minimum spends, are returned as configuration
// errors.
func NewProblem(campaigns []media.Campaign, budget, scaleFactor float64) (*Problem, error) {
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget < 0 {
		return nil, fmt.Errorf("total budget %v must be a non-negative number", budget)
	}

	n := len(campaigns)
	p := &Problem{
		Campaigns: campaigns,
		Curves:    make([]curve.Tanh, n),
		Budget:    budget,
	}
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i, c := range campaigns {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if math.IsInf(c.SpendMax, 1) {
			return nil, fmt.Errorf("campaign %s: spend_max must be finite", c.Name)
		}
		p.Curves[i] = c.Curve(scaleFactor)
		lower[i] = c.SpendMin
		upper[i] = c.SpendMax
	}

	box, err := feasible.NewBox(lower, upper)
	if err != nil {
		return nil, err
	}
	if box.MinTotal() > budget {
		return nil, fmt.Errorf("%w: minimum spends total %.2f, above the budget %.2f",
			feasible.ErrInfeasible, box.MinTotal(), budget)
	}
	p.Box = box
	return p, nil
}

// Dim returns the number of campaigns.
func (p *Problem) Dim() int {
	return len(p.Curves)
}

// Profit returns the total modeled profit at x.
func (p *Problem) Profit(x []float64) float64 {
	total := 0.0
	for i, c := range p.Curves {
		total += c.Profit(x[i])
	}
	return total
}

// Gradient writes d(profit)/dx into grad.
func (p *Problem) Gradient(grad, x []float64) {
	for i, c := range p.Curves {
		grad[i] = c.Gradient(x[i])
	}
}

// Ceiling is the largest profit any allocation could reach.
func (p *Problem) Ceiling() float64 {
	total := 0.0
	for _, c := range p.Curves {
		total += c.ScaleFactor * c.Seasonality
	}
	return total
}

// Start is the equal split of the budget clipped into the bounds and, when
// clipping raised the total, pulled back under the budget.
func (p *Problem) Start() []float64 {
	n := p.Dim()
	x := make([]float64, n)
	if n == 0 {
		return x
	}
	for i := range x {
		x[i] = p.Budget / float64(n)
	}
	projected, err := p.Box.ProjectBudget(x, p.Budget)
	if err != nil {
		p.Box.Clip(x)
		return x
	}
	return projected
}

// Project maps x onto the feasible set.
func (p *Problem) Project(x []float64) ([]float64, error) {
	return p.Box.ProjectBudget(x, p.Budget)
}

// Feasible reports whether x satisfies the bounds and the budget to within
// tol, taken relative to the budget.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	if len(x) != p.Dim() {
		return false
	}
	slack := tol * math.Max(p.Budget, 1)
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Box.Contains(x, slack) && floats.Sum(x) <= p.Budget+slack
}
