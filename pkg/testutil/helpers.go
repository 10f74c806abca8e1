// Package testutil looks up named rows in engine results for tests.
package testutil

import (
	"github.com/iwvelando/mix-optimizer/pkg/optimization"
)

// FindScenario returns the named scenario of a batch evaluation, or nil. The
// pointer aliases the slice element.
func FindScenario(results []optimization.ScenarioEvaluation, name string) *optimization.ScenarioEvaluation {
	return find(results, func(s optimization.ScenarioEvaluation) bool { return s.Name == name })
}

// FindCampaign returns the named campaign of a constrained result, or nil.
func FindCampaign(result optimization.ConstrainedResult, name string) *optimization.CampaignResult {
	return find(result.Campaigns, func(c optimization.CampaignResult) bool { return c.Name == name })
}

// FindAllocation returns the allocation for curveID in an optimizer result,
// or nil.
func FindAllocation(result optimization.Result, curveID string) *optimization.ChannelResult {
	return find(result.Allocations, func(a optimization.ChannelResult) bool { return a.CurveID == curveID })
}

func find[T any](rows []T, match func(T) bool) *T {
	for i := range rows {
		if match(rows[i]) {
			return &rows[i]
		}
	}
	return nil
}
