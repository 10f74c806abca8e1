// Package output provides utilities for formatting and displaying allocation
// results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/iwvelando/mix-optimizer/pkg/format"
	"github.com/iwvelando/mix-optimizer/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders result to w in the named format. result must be one of
// optimization.Result, optimization.ConstrainedResult, optimization.Evaluation
// or a slice of evaluations.
func Write(w io.Writer, outputFormat string, result any) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return Pretty(w, result)
	case constants.OutputFormatCSV:
		return CSV(w, result)
	case constants.OutputFormatJSON:
		return JSON(w, result)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable table to stdout.
func PrettyFormat(result any) error {
	return Pretty(os.Stdout, result)
}

// Pretty writes a human-readable rather than machine-readable table.
func Pretty(w io.Writer, result any) error {
	p := message.NewPrinter(language.English)
	switch r := result.(type) {
	case optimization.Result:
		prettyResult(w, p, r)
	case *optimization.Result:
		prettyResult(w, p, *r)
	case optimization.ConstrainedResult:
		prettyConstrained(w, p, r)
	case *optimization.ConstrainedResult:
		prettyConstrained(w, p, *r)
	case optimization.Evaluation:
		prettyEvaluation(w, p, "", r)
	case *optimization.Evaluation:
		prettyEvaluation(w, p, "", *r)
	case []optimization.ScenarioEvaluation:
		for i, s := range r {
			if i > 0 {
				fmt.Fprintln(w)
			}
			prettyEvaluation(w, p, s.Name, s.Evaluation)
		}
	default:
		return fmt.Errorf("cannot format %T", result)
	}
	return nil
}

func prettyResult(w io.Writer, p *message.Printer, r optimization.Result) {
	fmt.Fprintf(w, "--- Optimized allocation ---\n")
	fmt.Fprintf(w, "Channel | Current | Optimized | Change | Response | Marginal ROI\n")
	fmt.Fprintf(w, "_______ | _______ | _________ | ______ | ________ | ____________\n")
	for _, a := range r.Allocations {
		_, _ = p.Fprintf(w, "%s | %s | %s | %+.1f%% | %.2f | %s\n",
			label(a.CurveID, a.Channel),
			format.Currency(a.CurrentSpend),
			format.Currency(a.OptimizedSpend),
			a.ChangePct,
			a.OptimizedResponse,
			marginal(a.MarginalROI),
		)
	}

	s := r.Summary
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Budget: %s\n", format.Currency(s.TotalBudget))
	_, _ = p.Fprintf(w, "Response: %.2f -> %.2f (%+.2f%%)\n", s.TotalCurrentResponse, s.TotalOptimizedResponse, s.ResponseLiftPct)
	if s.Unallocated > 0 {
		fmt.Fprintf(w, "Unallocated: %s\n", format.Currency(s.Unallocated))
	}
	fmt.Fprintf(w, "Iterations: %d (converged: %t)\n", s.Iterations, s.Converged)
	for _, note := range s.Notes {
		fmt.Fprintf(w, "Note: %s\n", note)
	}
}

func prettyConstrained(w io.Writer, p *message.Printer, r optimization.ConstrainedResult) {
	fmt.Fprintf(w, "--- Constrained allocation (%s) ---\n", r.Solver)
	fmt.Fprintf(w, "Campaign | Spend | Profit | ROI | Marginal ROI | Spend Share | Bounds\n")
	fmt.Fprintf(w, "________ | _____ | ______ | ___ | ____________ | ___________ | ______\n")
	for _, c := range r.Campaigns {
		_, _ = p.Fprintf(w, "%s | %s | %s | %.4f | %s | %.1f%% | %s\n",
			label(c.Name, c.Channel),
			format.Currency(c.NetSpend),
			format.Currency(c.Profit),
			c.ROI,
			marginal(c.MarginalROI),
			c.SpendShare,
			format.Range(c.SpendMin, c.SpendMax),
		)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Budget: %s (spent %s)\n", format.Currency(r.TotalBudget), format.Currency(r.TotalSpend))
	_, _ = p.Fprintf(w, "Profit: %s -> %s (%+.2f%%)\n", format.Currency(r.StartProfit), format.Currency(r.TotalProfit), r.ProfitLiftPct)
	fmt.Fprintf(w, "Algorithm: %s (degraded: %t)\n", r.Algorithm, r.Degraded)
	for _, a := range r.Attempts {
		if a.Error != "" {
			fmt.Fprintf(w, "Attempt %s: %s\n", a.Solver, a.Error)
		}
	}
}

func prettyEvaluation(w io.Writer, p *message.Printer, name string, e optimization.Evaluation) {
	if name != "" {
		fmt.Fprintf(w, "--- Results for scenario %s ---\n", name)
	} else {
		fmt.Fprintf(w, "--- Simulation results ---\n")
	}
	fmt.Fprintf(w, "Channel | Spend | Response | ROI | Impressions | Volume | Brand Lift\n")
	fmt.Fprintf(w, "_______ | _____ | ________ | ___ | ___________ | ______ | __________\n")
	for _, r := range e.Results {
		_, _ = p.Fprintf(w, "%s | %s | %.2f | %.4f | %.0f | %.2f | %.4f\n",
			label(r.CurveID, r.Channel),
			format.Currency(r.Spend),
			r.Response,
			r.ROI,
			r.Impressions,
			r.IncrVolume,
			r.BrandLift,
		)
	}
	fmt.Fprintf(w, "\n")
	_, _ = p.Fprintf(w, "Total spend: %s | response: %.2f | volume: %.2f | impressions: %.0f\n",
		format.Currency(e.Summary.TotalSpend), e.Summary.TotalResponse, e.Summary.TotalVolume, e.Summary.TotalImpressions)
}

// CsvFormat outputs in comma-separated value format to stdout.
func CsvFormat(result any) error {
	return CSV(os.Stdout, result)
}

// CSV writes result as comma-separated values with a header row.
func CSV(w io.Writer, result any) error {
	var rows [][]string
	switch r := result.(type) {
	case optimization.Result:
		rows = resultRows(r)
	case *optimization.Result:
		rows = resultRows(*r)
	case optimization.ConstrainedResult:
		rows = constrainedRows(r)
	case *optimization.ConstrainedResult:
		rows = constrainedRows(*r)
	case optimization.Evaluation:
		rows = evaluationRows([]optimization.ScenarioEvaluation{{Evaluation: r}})
	case *optimization.Evaluation:
		rows = evaluationRows([]optimization.ScenarioEvaluation{{Evaluation: *r}})
	case []optimization.ScenarioEvaluation:
		rows = evaluationRows(r)
	default:
		return fmt.Errorf("cannot format %T", result)
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// CsvString returns the CSV rendering of result.
func CsvString(result any) (string, error) {
	var b strings.Builder
	if err := CSV(&b, result); err != nil {
		return "", err
	}
	return b.String(), nil
}

func resultRows(r optimization.Result) [][]string {
	rows := [][]string{{
		"curve_id", "channel", "current_spend", "optimized_spend", "change_amount", "change_pct",
		"current_response", "optimized_response", "response_change_pct", "marginal_roi", "roi",
		"impressions", "incr_volume", "brand_lift",
	}}
	for _, a := range r.Allocations {
		rows = append(rows, []string{
			a.CurveID, a.Channel,
			number(a.CurrentSpend), number(a.OptimizedSpend), number(a.ChangeAmount), number(a.ChangePct),
			number(a.CurrentResponse), number(a.OptimizedResponse), number(a.ResponseChangePct),
			number(a.MarginalROI), number(a.ROI),
			number(a.Impressions), number(a.IncrVolume), number(a.BrandLift),
		})
	}
	return rows
}

func constrainedRows(r optimization.ConstrainedResult) [][]string {
	rows := [][]string{{
		"name", "channel", "seasonality", "spend_min", "spend_max", "net_spend",
		"profit", "roi", "marginal_roi", "spend_share", "profit_share", "solver",
	}}
	for _, c := range r.Campaigns {
		rows = append(rows, []string{
			c.Name, c.Channel,
			number(c.Seasonality), number(c.SpendMin), number(c.SpendMax), number(c.NetSpend),
			number(c.Profit), number(c.ROI), number(c.MarginalROI),
			number(c.SpendShare), number(c.ProfitShare), r.Solver,
		})
	}
	return rows
}

func evaluationRows(scenarios []optimization.ScenarioEvaluation) [][]string {
	rows := [][]string{{
		"scenario", "curve_id", "channel", "spend", "response", "marginal_roi", "roi",
		"impressions", "incr_volume", "brand_lift",
	}}
	for _, s := range scenarios {
		for _, r := range s.Evaluation.Results {
			rows = append(rows, []string{
				s.Name, r.CurveID, r.Channel,
				number(r.Spend), number(r.Response), number(r.MarginalROI), number(r.ROI),
				number(r.Impressions), number(r.IncrVolume), number(r.BrandLift),
			})
		}
	}
	return rows
}

// JSON writes result as indented JSON.
func JSON(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

func label(id, channel string) string {
	if channel == "" || channel == id {
		return id
	}
	return id + " (" + channel + ")"
}

// marginal renders a marginal return, which is unbounded at zero spend for
// Hill curves.
func marginal(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func number(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
