package optimization

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestChannelResultMarshalsInfiniteMarginalAsNull(t *testing.T) {
	data, err := json.Marshal(Result{Allocations: []ChannelResult{
		{CurveID: "A", MarginalROI: math.Inf(1)},
		{CurveID: "B", MarginalROI: 2.5, OptimizedSpend: 10},
	}})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"marginal_roi":null`) {
		t.Fatalf("expected null marginal ROI, got %s", out)
	}
	if !strings.Contains(out, `"marginal_roi":2.5`) || !strings.Contains(out, `"optimized_spend":10`) {
		t.Fatalf("expected finite fields to survive, got %s", out)
	}
	if strings.Count(out, "marginal_roi") != 2 {
		t.Fatalf("expected one marginal_roi per allocation, got %s", out)
	}
}

func TestChannelEvaluationMarshal(t *testing.T) {
	data, err := json.Marshal(Evaluation{Results: []ChannelEvaluation{{CurveID: "A", MarginalROI: math.NaN()}}})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var back Evaluation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if back.Results[0].CurveID != "A" || back.Results[0].MarginalROI != 0 {
		t.Fatalf("unexpected round trip %+v", back.Results[0])
	}
}

func TestSpendsAndOptimized(t *testing.T) {
	r := ConstrainedResult{Campaigns: []CampaignResult{{NetSpend: 1}, {NetSpend: 2}}}
	if got := r.Spends(); len(got) != 2 || got[1] != 2 {
		t.Fatalf("unexpected spends %v", got)
	}
	res := Result{Allocations: []ChannelResult{{CurveID: "x", OptimizedSpend: 3}}}
	if res.Optimized()["x"] != 3 {
		t.Fatalf("unexpected optimized map %v", res.Optimized())
	}
	if _, ok := (Evaluation{}).Find("missing"); ok {
		t.Fatal("expected missing evaluation")
	}
}
