// Package solver maximizes total tanh profit across campaigns under spend
// bounds and a budget inequality. Strategies run in order until one returns
// a feasible allocation at least as profitable as the equal-split start; the
// final strategy returns that start and never fails.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/mix-optimizer/internal/config"
	"github.com/iwvelando/mix-optimizer/internal/media"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/iwvelando/mix-optimizer/pkg/mathutil"
	"github.com/iwvelando/mix-optimizer/pkg/optimization"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Solver runs the strategy chain. A Solver is stateless between calls.
type Solver struct {
	logger     *zap.Logger
	settings   config.SolverConfig
	strategies []Strategy
}

// New constructs a Solver. Without strategies the default chain is used.
func New(logger *zap.Logger, settings config.SolverConfig, strategies ...Strategy) (*Solver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Solver{logger: logger, settings: settings, strategies: strategies}, nil
}

// Optimize builds a solver from settings and runs it once.
func Optimize(logger *zap.Logger, campaigns []media.Campaign, budget float64, algorithm string, settings config.SolverConfig) (*optimization.ConstrainedResult, error) {
	s, err := New(logger, settings)
	if err != nil {
		return nil, err
	}
	return s.Optimize(campaigns, budget, algorithm)
}

// Optimize maximizes profit for campaigns under budget. Configuration errors
// are returned; solver failures degrade to the next strategy.
func (s *Solver) Optimize(campaigns []media.Campaign, budget float64, algorithm string) (*optimization.ConstrainedResult, error) {
	algorithm = config.CanonicalAlgorithm(algorithm)
	p, err := NewProblem(campaigns, budget, s.settings.ScaleFactor)
	if err != nil {
		return nil, err
	}

	start := p.Start()
	startProfit := p.Profit(start)

	var (
		attempts []optimization.Attempt
		chosen   Solution
		label    string
		index    = -1
	)
	for i, strategy := range s.strategies {
		name := strategy.Name(algorithm)
		solution, err := strategy.Solve(p, start, algorithm, s.settings)
		if err == nil {
			err = s.accept(p, solution, startProfit)
		}
		attempt := optimization.Attempt{Solver: name, Iterations: solution.Iterations}
		if err != nil {
			attempt.Error = err.Error()
			attempts = append(attempts, attempt)
			level := s.logger.Warn
			if errors.Is(err, ErrUnavailable) {
				level = s.logger.Debug
			}
			level("solver strategy rejected",
				zap.String("op", "solver.Optimize"),
				zap.String("solver", name),
				zap.Error(err),
			)
			continue
		}
		attempts = append(attempts, attempt)
		chosen, label, index = solution, name, i
		break
	}

	if index < 0 {
		chosen = Solution{X: start, Profit: startProfit}
		label = FallbackName
		attempts = append(attempts, optimization.Attempt{Solver: FallbackName})
	}

	result := s.report(p, chosen, startProfit)
	result.Solver = label
	result.Algorithm = algorithm
	result.Degraded = index != 0
	result.Attempts = attempts

	s.logger.Info("solver allocated budget",
		zap.String("op", "solver.Optimize"),
		zap.String("solver", label),
		zap.String("algorithm", algorithm),
		zap.Int("campaigns", p.Dim()),
		zap.Float64("budget", budget),
		zap.Float64("profit", result.TotalProfit),
		zap.Float64("startProfit", startProfit),
		zap.Bool("degraded", result.Degraded),
	)
	return result, nil
}

// accept rejects solutions that leave the feasible set, are not finite, or
// lose profit against the start.
func (s *Solver) accept(p *Problem, solution Solution, startProfit float64) error {
	if !finite(solution.X) || math.IsNaN(solution.Profit) || math.IsInf(solution.Profit, 0) {
		return errors.New("non-finite solution")
	}
	if !p.Feasible(solution.X, s.settings.ConstraintTolerance) {
		return errors.New("solution violates bounds or budget")
	}
	if solution.Profit < startProfit-s.settings.FTolRel*math.Max(math.Abs(startProfit), 1) {
		return fmt.Errorf("solution profit %.2f below starting profit %.2f", solution.Profit, startProfit)
	}
	return nil
}

// report builds the result at solution. An unfunded campaign's marginal ROI is
// the profit of its first currency unit, since the analytic slope at zero is 0.
func (s *Solver) report(p *Problem, solution Solution, startProfit float64) *optimization.ConstrainedResult {
	totalSpend := floats.Sum(solution.X)
	totalProfit := p.Profit(solution.X)

	result := &optimization.ConstrainedResult{
		TotalBudget:   p.Budget,
		TotalSpend:    totalSpend,
		TotalProfit:   totalProfit,
		StartProfit:   startProfit,
		ProfitLiftPct: mathutil.PercentChange(startProfit, totalProfit),
		AverageROI:    mathutil.SafeDivide(totalProfit, totalSpend),
		Campaigns:     make([]optimization.CampaignResult, p.Dim()),
	}
	for i, c := range p.Campaigns {
		spend := solution.X[i]
		profit := p.Curves[i].Profit(spend)
		marginal := p.Curves[i].Gradient(spend)
		if spend <= 0 {
			marginal = p.Curves[i].FiniteDifference(0, constants.FirstUnitSpend)
		}
		result.Campaigns[i] = optimization.CampaignResult{
			Name:        c.Name,
			Channel:     c.Channel,
			Seasonality: p.Curves[i].Seasonality,
			SpendMin:    c.SpendMin,
			SpendMax:    c.SpendMax,
			NetSpend:    spend,
			Profit:      profit,
			ROI:         mathutil.SafeDivide(profit, spend),
			MarginalROI: marginal,
			SpendShare:  mathutil.CalculatePercentage(spend, totalSpend),
			ProfitShare: mathutil.CalculatePercentage(profit, totalProfit),
		}
	}
	return result
}
