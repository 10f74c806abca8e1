// Package simulate scores fixed allocations against response curves without
// searching. It backs what-if queries and the before/after reporting of the
// optimizers.
package simulate

import (
	"context"
	"fmt"

	"github.com/iwvelando/mix-optimizer/internal/media"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/iwvelando/mix-optimizer/pkg/mathutil"
	"github.com/iwvelando/mix-optimizer/pkg/optimization"
	"golang.org/x/sync/errgroup"
)

// Channel evaluates a single curve at spend.
func Channel(c media.Curve, spend float64, cpms media.CPMs) optimization.ChannelEvaluation {
	response := c.Response(spend)
	brandLift := 0.0
	if ceiling := c.Ceiling(); ceiling > 0 {
		brandLift = response / ceiling * c.BrandLift() * constants.PercentageMultiplier
	}
	return optimization.ChannelEvaluation{
		CurveID:     c.ID,
		Channel:     c.Label(),
		Spend:       spend,
		Response:    response,
		MarginalROI: c.Marginal(spend),
		ROI:         mathutil.SafeDivide(response, spend),
		Impressions: cpms.Impressions(c.ID, spend),
		IncrVolume:  response * c.Volume(),
		BrandLift:   brandLift,
	}
}

// Evaluate scores allocation against curves. Results follow curve order;
// allocation entries without a curve are ignored and curves without an entry
// are skipped.
func Evaluate(curves []media.Curve, allocation media.Allocation, cpms media.CPMs) optimization.Evaluation {
	evaluation := optimization.Evaluation{Results: make([]optimization.ChannelEvaluation, 0, len(curves))}
	for _, c := range curves {
		spend, ok := allocation[c.ID]
		if !ok {
			continue
		}
		result := Channel(c, spend, cpms)
		evaluation.Results = append(evaluation.Results, result)
		evaluation.Summary.TotalSpend += spend
		evaluation.Summary.TotalResponse += result.Response
		evaluation.Summary.TotalVolume += result.IncrVolume
		evaluation.Summary.TotalImpressions += result.Impressions
	}
	return evaluation
}

// Compare builds the per-curve before/after report for an optimized
// allocation. Curves missing from current are treated as zero spend.
func Compare(curves []media.Curve, current, optimized media.Allocation, cpms media.CPMs) ([]optimization.ChannelResult, float64, float64) {
	results := make([]optimization.ChannelResult, 0, len(curves))
	totalCurrent := 0.0
	totalOptimized := 0.0
	for _, c := range curves {
		before := Channel(c, current[c.ID], cpms)
		after := Channel(c, optimized[c.ID], cpms)
		results = append(results, optimization.ChannelResult{
			CurveID:           c.ID,
			Channel:           c.Label(),
			CurrentSpend:      before.Spend,
			OptimizedSpend:    after.Spend,
			ChangeAmount:      after.Spend - before.Spend,
			ChangePct:         mathutil.PercentChange(before.Spend, after.Spend),
			CurrentResponse:   before.Response,
			OptimizedResponse: after.Response,
			ResponseChangePct: mathutil.PercentChange(before.Response, after.Response),
			MarginalROI:       after.MarginalROI,
			ROI:               after.ROI,
			Impressions:       after.Impressions,
			IncrVolume:        after.IncrVolume,
			BrandLift:         after.BrandLift,
		})
		totalCurrent += before.Response
		totalOptimized += after.Response
	}
	return results, totalCurrent, totalOptimized
}

// Scenario is one named what-if allocation.
type Scenario struct {
	Name       string           `json:"name" yaml:"name"`
	Allocation media.Allocation `json:"allocations" yaml:"allocations"`
}

// ScenarioResult pairs a scenario name with its evaluation.
type ScenarioResult = optimization.ScenarioEvaluation

// EvaluateScenarios scores several allocations against the same curves in
// parallel. Results keep the order of scenarios.
func EvaluateScenarios(ctx context.Context, curves []media.Curve, scenarios []Scenario, cpms media.CPMs) ([]ScenarioResult, error) {
	results := make([]ScenarioResult, len(scenarios))
	g, gCtx := errgroup.WithContext(ctx)
	for i := range scenarios {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return fmt.Errorf("scenario %s: %w", scenarios[i].Name, err)
			}
			results[i] = ScenarioResult{
				Name:       scenarios[i].Name,
				Evaluation: Evaluate(curves, scenarios[i].Allocation, cpms),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
