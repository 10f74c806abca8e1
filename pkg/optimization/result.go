// Package optimization provides shared data structures for optimization and
// evaluation results.
package optimization

// ChannelResult captures the before/after outcome for a single curve.
type ChannelResult struct {
	CurveID           string  `json:"curve_id"`
	Channel           string  `json:"channel"`
	CurrentSpend      float64 `json:"current_spend"`
	OptimizedSpend    float64 `json:"optimized_spend"`
	ChangeAmount      float64 `json:"change_amount"`
	ChangePct         float64 `json:"change_pct"`
	CurrentResponse   float64 `json:"current_response"`
	OptimizedResponse float64 `json:"optimized_response"`
	ResponseChangePct float64 `json:"response_change_pct"`
	MarginalROI       float64 `json:"marginal_roi"`
	ROI               float64 `json:"roi"`
	Impressions       float64 `json:"impressions"`
	IncrVolume        float64 `json:"incr_volume"`
	BrandLift         float64 `json:"brand_lift"`
}

// Summary aggregates an optimization run.
type Summary struct {
	TotalBudget            float64  `json:"total_budget"`
	TotalCurrentResponse   float64  `json:"total_current_response"`
	TotalOptimizedResponse float64  `json:"total_optimized_response"`
	ResponseLiftPct        float64  `json:"response_lift_pct"`
	Unallocated            float64  `json:"unallocated,omitempty"`
	Iterations             int      `json:"iterations"`
	Converged              bool     `json:"converged"`
	Notes                  []string `json:"notes,omitempty"`
}

// Result is the outcome of marginal-return equalization.
type Result struct {
	Allocations []ChannelResult `json:"allocations"`
	Summary     Summary         `json:"summary"`
}

// Optimized returns the optimized spend keyed by curve id.
func (r Result) Optimized() map[string]float64 {
	out := make(map[string]float64, len(r.Allocations))
	for _, a := range r.Allocations {
		out[a.CurveID] = a.OptimizedSpend
	}
	return out
}

// ChannelEvaluation is the what-if outcome for a single curve at a fixed spend.
type ChannelEvaluation struct {
	CurveID     string  `json:"curve_id"`
	Channel     string  `json:"channel"`
	Spend       float64 `json:"spend"`
	Response    float64 `json:"response"`
	MarginalROI float64 `json:"marginal_roi"`
	ROI         float64 `json:"roi"`
	Impressions float64 `json:"impressions"`
	IncrVolume  float64 `json:"incr_volume"`
	BrandLift   float64 `json:"brand_lift"`
}

// EvaluationSummary aggregates a what-if evaluation.
type EvaluationSummary struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalResponse    float64 `json:"total_response"`
	TotalVolume      float64 `json:"total_volume"`
	TotalImpressions float64 `json:"total_impressions"`
}

// Evaluation is the outcome of scoring a fixed allocation.
type Evaluation struct {
	Results []ChannelEvaluation `json:"results"`
	Summary EvaluationSummary   `json:"summary"`
}

// Find returns the evaluation for curve id.
func (e Evaluation) Find(id string) (ChannelEvaluation, bool) {
	for _, r := range e.Results {
		if r.CurveID == id {
			return r, true
		}
	}
	return ChannelEvaluation{}, false
}

// ScenarioEvaluation pairs a named what-if scenario with its evaluation.
type ScenarioEvaluation struct {
	Name       string     `json:"name"`
	Evaluation Evaluation `json:"evaluation"`
}

// CampaignResult is the constrained solver's outcome for one campaign.
type CampaignResult struct {
	Name        string  `json:"name"`
	Channel     string  `json:"channel,omitempty"`
	Seasonality float64 `json:"seasonality"`
	SpendMin    float64 `json:"spend_min"`
	SpendMax    float64 `json:"spend_max"`
	NetSpend    float64 `json:"net_spend"`
	Profit      float64 `json:"profit"`
	ROI         float64 `json:"roi"`
	MarginalROI float64 `json:"marginal_roi"`
	SpendShare  float64 `json:"spend_share"`
	ProfitShare float64 `json:"profit_share"`
}

// Attempt records one strategy tried by the constrained solver.
type Attempt struct {
	Solver     string `json:"solver"`
	Error      string `json:"error,omitempty"`
	Iterations int    `json:"iterations"`
}

// ConstrainedResult is the outcome of the constrained solver.
type ConstrainedResult struct {
	Solver        string           `json:"solver"`
	Algorithm     string           `json:"algorithm"`
	Degraded      bool             `json:"degraded"`
	Attempts      []Attempt        `json:"attempts"`
	TotalBudget   float64          `json:"total_budget"`
	TotalSpend    float64          `json:"total_spend"`
	TotalProfit   float64          `json:"total_profit"`
	StartProfit   float64          `json:"start_profit"`
	ProfitLiftPct float64          `json:"profit_lift_pct"`
	AverageROI    float64          `json:"average_roi"`
	Campaigns     []CampaignResult `json:"campaigns"`
}

// Spends returns the optimal spend per campaign in input order.
func (r ConstrainedResult) Spends() []float64 {
	out := make([]float64, len(r.Campaigns))
	for i, c := range r.Campaigns {
		out[i] = c.NetSpend
	}
	return out
}
