package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/iwvelando/mix-optimizer/pkg/optimization"
)

func sampleResult() optimization.Result {
	return optimization.Result{
		Allocations: []optimization.ChannelResult{
			{
				CurveID:           "tv",
				Channel:           "Television",
				CurrentSpend:      500000,
				OptimizedSpend:    420000,
				ChangeAmount:      -80000,
				ChangePct:         -16,
				CurrentResponse:   700000,
				OptimizedResponse: 640000,
				MarginalROI:       0.42,
				ROI:               1.52,
			},
			{
				CurveID:        "search",
				Channel:        "search",
				CurrentSpend:   0,
				OptimizedSpend: 80000,
				ChangeAmount:   80000,
				MarginalROI:    math.Inf(1),
			},
		},
		Summary: optimization.Summary{
			TotalBudget:            500000,
			TotalCurrentResponse:   700000,
			TotalOptimizedResponse: 760000,
			ResponseLiftPct:        8.57,
			Iterations:             12,
			Converged:              true,
			Notes:                  []string{"search pinned at its maximum"},
		},
	}
}

func sampleConstrained() optimization.ConstrainedResult {
	return optimization.ConstrainedResult{
		Solver:      "Gonum-SLSQP",
		Algorithm:   "SLSQP",
		Attempts:    []optimization.Attempt{{Solver: "Gonum-SLSQP", Iterations: 40}},
		TotalBudget: 1000000,
		TotalSpend:  999999.5,
		TotalProfit: 1234567.89,
		StartProfit: 1100000,
		Campaigns: []optimization.CampaignResult{
			{Name: "Spring TV", Channel: "tv", Seasonality: 1.1, SpendMax: 800000, NetSpend: 600000, Profit: 800000, ROI: 1.33, MarginalROI: 0.9, SpendShare: 60},
			{Name: "Search", Seasonality: 1, SpendMax: 500000, NetSpend: 399999.5, Profit: 434567.89, ROI: 1.09, MarginalROI: 0.9, SpendShare: 40},
		},
	}
}

func sampleScenarios() []optimization.ScenarioEvaluation {
	return []optimization.ScenarioEvaluation{
		{
			Name: "baseline",
			Evaluation: optimization.Evaluation{
				Results: []optimization.ChannelEvaluation{
					{CurveID: "tv", Channel: "tv", Spend: 1000, Response: 250, ROI: 0.25, Impressions: 100000},
				},
				Summary: optimization.EvaluationSummary{TotalSpend: 1000, TotalResponse: 250, TotalImpressions: 100000},
			},
		},
		{
			Name: "shift",
			Evaluation: optimization.Evaluation{
				Results: []optimization.ChannelEvaluation{
					{CurveID: "tv", Channel: "tv", Spend: 2000, Response: 400, ROI: 0.2, Impressions: 200000},
				},
				Summary: optimization.EvaluationSummary{TotalSpend: 2000, TotalResponse: 400, TotalImpressions: 200000},
			},
		},
	}
}

func TestPrettyResult(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleResult()); err != nil {
		t.Fatalf("Pretty() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"--- Optimized allocation ---",
		"Channel | Current | Optimized | Change | Response | Marginal ROI",
		"tv (Television) | $500,000.00 | $420,000.00 | -16.0%",
		"search | $0.00 | $80,000.00",
		"n/a",
		"Budget: $500,000.00",
		"Iterations: 12 (converged: true)",
		"Note: search pinned at its maximum",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Pretty() output missing %q\n%s", want, output)
		}
	}
	if strings.Contains(output, "Unallocated") {
		t.Errorf("Pretty() should omit zero unallocated budget")
	}
}

func TestPrettyConstrained(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleConstrained()); err != nil {
		t.Fatalf("Pretty() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"--- Constrained allocation (Gonum-SLSQP) ---",
		"Spring TV (tv) | $600,000.00 | $800,000.00",
		"Profit: $1,100,000.00 -> $1,234,567.89",
		"Algorithm: SLSQP (degraded: false)",
		"| $0.00 to $800,000.00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Pretty() output missing %q\n%s", want, output)
		}
	}
	if strings.Contains(output, "Attempt ") {
		t.Errorf("Pretty() should list only failed attempts")
	}
}

func TestPrettyScenarios(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleScenarios()); err != nil {
		t.Fatalf("Pretty() error = %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "--- Results for scenario baseline ---") ||
		!strings.Contains(output, "--- Results for scenario shift ---") {
		t.Fatalf("Pretty() missing scenario headers\n%s", output)
	}
	if !strings.Contains(output, "100,000") {
		t.Errorf("Pretty() should group impression digits\n%s", output)
	}
}

func TestPrettyUnsupported(t *testing.T) {
	if err := Pretty(io.Discard, 42); err == nil {
		t.Fatal("expected error for unsupported value")
	}
	if err := CSV(io.Discard, "text"); err == nil {
		t.Fatal("expected error for unsupported value")
	}
}

func TestCsvResult(t *testing.T) {
	out, err := CsvString(sampleResult())
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(records))
	}
	if records[0][0] != "curve_id" || records[1][0] != "tv" || records[2][0] != "search" {
		t.Fatalf("unexpected rows %v", records)
	}
	if records[1][3] != "420000" {
		t.Errorf("expected optimized spend 420000, got %s", records[1][3])
	}
	if records[2][9] != "" {
		t.Errorf("expected empty marginal roi for unbounded value, got %s", records[2][9])
	}
}

func TestCsvConstrainedAndScenarios(t *testing.T) {
	out, err := CsvString(sampleConstrained())
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 3 || records[1][0] != "Spring TV" || records[1][11] != "Gonum-SLSQP" {
		t.Fatalf("unexpected constrained rows %v", records)
	}

	out, err = CsvString(sampleScenarios())
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}
	records, err = csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 3 || records[1][0] != "baseline" || records[2][0] != "shift" {
		t.Fatalf("unexpected scenario rows %v", records)
	}
}

func TestJSONWritesNullForUnboundedMarginal(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleResult()); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded struct {
		Allocations []struct {
			CurveID     string   `json:"curve_id"`
			MarginalROI *float64 `json:"marginal_roi"`
		} `json:"allocations"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if decoded.Allocations[0].MarginalROI == nil || *decoded.Allocations[0].MarginalROI != 0.42 {
		t.Fatalf("unexpected marginal for tv: %v", decoded.Allocations[0].MarginalROI)
	}
	if decoded.Allocations[1].MarginalROI != nil {
		t.Fatalf("expected null marginal for search")
	}
}

func TestWriteDispatch(t *testing.T) {
	for _, f := range []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON} {
		var buf bytes.Buffer
		if err := Write(&buf, f, sampleConstrained()); err != nil {
			t.Fatalf("Write(%s) error = %v", f, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("Write(%s) produced no output", f)
		}
	}
	if err := Write(io.Discard, "xml", sampleResult()); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestPrettyFormatWritesStdout(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := PrettyFormat(sampleResult())

	_ = w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if !strings.Contains(buf.String(), "--- Optimized allocation ---") {
		t.Errorf("PrettyFormat missing header")
	}
}
