// Package optimizer reallocates a fixed budget across response curves by
// repeatedly shifting spend from the curve with the lowest marginal return to
// the curve with the highest, until marginal returns equalize or constraints
// stop further movement.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/mix-optimizer/internal/config"
	"github.com/iwvelando/mix-optimizer/internal/feasible"
	"github.com/iwvelando/mix-optimizer/internal/media"
	"github.com/iwvelando/mix-optimizer/internal/simulate"
	"github.com/iwvelando/mix-optimizer/pkg/format"
	"github.com/iwvelando/mix-optimizer/pkg/mathutil"
	"github.com/iwvelando/mix-optimizer/pkg/optimization"
	"go.uber.org/zap"
)

// budgetTolerance is the relative slack allowed when comparing the placed
// spend to the budget.
const budgetTolerance = 1e-9

// Runner executes marginal-return equalization. A Runner holds no per-run
// state and may be shared between goroutines.
type Runner struct {
	logger *zap.Logger
	policy config.OptimizerConfig
}

// Request carries the inputs of a single optimization.
type Request struct {
	Curves      []media.Curve
	Current     media.Allocation
	TotalBudget float64
	CPMs        media.CPMs
	Constraints media.Constraints
}

// NewRunner constructs a Runner for the provided policy.
func NewRunner(logger *zap.Logger, policy config.OptimizerConfig) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Runner{logger: logger, policy: policy}, nil
}

type channel struct {
	curve  media.Curve
	bounds media.Constraint
	spend  float64
}

// Validate reports configuration errors in the request.
func (req Request) Validate() error {
	if math.IsNaN(req.TotalBudget) || math.IsInf(req.TotalBudget, 0) || req.TotalBudget < 0 {
		return fmt.Errorf("total budget %v must be a non-negative number", req.TotalBudget)
	}
	if err := media.ValidateCurves(req.Curves); err != nil {
		return err
	}
	if err := req.Constraints.Validate(); err != nil {
		return err
	}
	for _, id := range req.Current.Keys() {
		if spend := req.Current[id]; spend < 0 || math.IsNaN(spend) {
			return fmt.Errorf("current allocation %s: spend %v must be non-negative", id, spend)
		}
	}
	return nil
}

// Optimize runs the equalization loop and reports the before/after outcome.
// Non-convergence is reported through Summary.Converged, not as an error.
func (r *Runner) Optimize(req Request) (*optimization.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if len(req.Curves) == 0 {
		return &optimization.Result{
			Allocations: []optimization.ChannelResult{},
			Summary: optimization.Summary{
				TotalBudget: req.TotalBudget,
				Converged:   true,
			},
		}, nil
	}

	bounds := req.CPMs.Tighten(req.Curves, req.Constraints)
	for _, c := range req.Curves {
		if err := bounds[c.ID].Validate(); err != nil {
			return nil, fmt.Errorf("constraint %s after CPM ceiling: %w", c.ID, err)
		}
	}
	if minTotal := bounds.MinTotal(req.Curves); minTotal > req.TotalBudget*(1+budgetTolerance) {
		return nil, fmt.Errorf("constraints require at least %s, above the budget %s: %w",
			format.Currency(minTotal), format.Currency(req.TotalBudget), feasible.ErrInfeasible)
	}

	channels := r.initialize(req, bounds)
	iterations, exhausted := r.equalize(channels)

	optimized := make(media.Allocation, len(channels))
	for _, ch := range channels {
		optimized[ch.curve.ID] = ch.spend
	}

	allocations, totalCurrent, totalOptimized := simulate.Compare(req.Curves, req.Current, optimized, req.CPMs)

	summary := optimization.Summary{
		TotalBudget:            req.TotalBudget,
		TotalCurrentResponse:   totalCurrent,
		TotalOptimizedResponse: totalOptimized,
		ResponseLiftPct:        mathutil.PercentChange(totalCurrent, totalOptimized),
		Iterations:             iterations,
		Converged:              !exhausted,
	}

	if note, ok := checkPlacement(channels, req.TotalBudget); !ok {
		summary.Unallocated = req.TotalBudget - optimized.Total()
		summary.Converged = false
		summary.Notes = append(summary.Notes, note)
	}
	if exhausted {
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"marginal returns not equalized within %d iterations", r.policy.MaxIterations))
	}

	r.logger.Info("optimizer reallocated budget",
		zap.String("op", "optimizer.Optimize"),
		zap.Int("curves", len(req.Curves)),
		zap.Float64("budget", req.TotalBudget),
		zap.Float64("currentResponse", totalCurrent),
		zap.Float64("optimizedResponse", totalOptimized),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)

	return &optimization.Result{Allocations: allocations, Summary: summary}, nil
}

// initialize scales the current allocation to the budget, or splits the budget
// equally when nothing is currently allocated. A seed that breaks a constraint
// is projected onto the bounds while keeping the budget total; when the
// constraints cannot hold the budget the seed is clamped instead.
func (r *Runner) initialize(req Request, bounds media.Constraints) []*channel {
	n := len(req.Curves)
	seed := make([]float64, n)
	lower := make([]float64, n)
	upper := make([]float64, n)

	currentTotal := 0.0
	for _, c := range req.Curves {
		currentTotal += req.Current[c.ID]
	}

	perChannel := req.TotalBudget / float64(n)
	for i, c := range req.Curves {
		seed[i] = perChannel
		if currentTotal > 0 {
			seed[i] = req.Current[c.ID] * req.TotalBudget / currentTotal
		}
		lower[i] = bounds[c.ID].Min
		upper[i] = bounds[c.ID].Max
	}

	box, err := feasible.NewBox(lower, upper)
	if err == nil && !box.Contains(seed, 0) {
		placed, projErr := box.ProjectTotal(seed, req.TotalBudget)
		if projErr != nil {
			r.logger.Debug("optimizer seed clamped to constraints",
				zap.String("op", "optimizer.initialize"),
				zap.Error(projErr),
			)
			box.Clip(seed)
		} else {
			seed = placed
		}
	}

	channels := make([]*channel, n)
	for i, c := range req.Curves {
		channels[i] = &channel{curve: c, bounds: bounds[c.ID], spend: seed[i]}
	}
	return channels
}

// equalize shifts spend pairwise until marginal returns agree. It returns the
// number of passes run and whether the iteration cap was exhausted.
func (r *Runner) equalize(channels []*channel) (int, bool) {
	for iteration := 0; iteration < r.policy.MaxIterations; iteration++ {
		receiver, donor := -1, -1
		maxMR := math.Inf(-1)
		minMR := math.Inf(1)

		for i, ch := range channels {
			mr := ch.curve.Marginal(ch.spend)
			if mr > maxMR && ch.spend < ch.bounds.Max {
				maxMR = mr
				receiver = i
			}
			if mr < minMR && ch.spend > ch.bounds.Min {
				minMR = mr
				donor = i
			}
		}

		if receiver < 0 || donor < 0 || receiver == donor {
			return iteration + 1, false
		}
		if (maxMR-minMR)/math.Max(maxMR, r.policy.MarginalFloor) < r.policy.Epsilon {
			return iteration + 1, false
		}

		from := channels[donor]
		to := channels[receiver]
		shift := math.Min(
			from.spend*r.policy.StepSize,
			math.Min(from.spend-from.bounds.Min, to.bounds.Max-to.spend),
		)
		if !(shift > 0) {
			return iteration + 1, false
		}

		from.spend -= shift
		to.spend += shift

		r.logger.Debug("optimizer shifted spend",
			zap.String("op", "optimizer.equalize"),
			zap.Int("iteration", iteration+1),
			zap.String("from", from.curve.ID),
			zap.String("to", to.curve.ID),
			zap.Float64("amount", shift),
			zap.Float64("maxMarginal", maxMR),
			zap.Float64("minMarginal", minMR),
		)
	}
	return r.policy.MaxIterations, true
}

// checkPlacement reports whether the allocation respects its bounds and places
// the full budget. Pinned curves can leave budget unplaced.
func checkPlacement(channels []*channel, budget float64) (string, bool) {
	total := 0.0
	maxTotal := 0.0
	var outside []*channel
	for _, ch := range channels {
		total += ch.spend
		maxTotal += ch.bounds.Max
		if ch.spend < ch.bounds.Min || ch.spend > ch.bounds.Max {
			outside = append(outside, ch)
		}
	}

	if len(outside) == 0 && mathutil.WithinRelativeTolerance(total, budget, budgetTolerance) {
		return "", true
	}
	if maxTotal < budget {
		return fmt.Sprintf("constraints cap total spend at %s, below the budget %s",
			format.Currency(maxTotal), format.Currency(budget)), false
	}
	if len(outside) > 0 {
		first := outside[0]
		return fmt.Sprintf("%d curves could not be brought within their constraints (first: %s at %s, allowed %s); %s placed of %s",
			len(outside), first.curve.ID, format.Currency(first.spend),
			format.Range(first.bounds.Min, first.bounds.Max),
			format.Currency(total), format.Currency(budget)), false
	}
	return fmt.Sprintf("%s placed of %s", format.Currency(total), format.Currency(budget)), false
}
