// Package validation provides input validation utilities.
package validation

import (
	"fmt"
	"math"

	"github.com/iwvelando/mix-optimizer/pkg/mathutil"
)

// budgetDriftTolerance is the relative gap between the current spend and the
// budget above which a warning is raised.
const budgetDriftTolerance = 0.01

// ValidateChannelRange checks whether a channel's current spend already sits
// outside its allowed range.
func ValidateChannelRange(name string, current, min, max float64) string {
	if current < min {
		return fmt.Sprintf("Channel '%s' current spend %.2f is below its minimum %.2f", name, current, min)
	}
	if current > max {
		return fmt.Sprintf("Channel '%s' current spend %.2f is above its maximum %.2f", name, current, max)
	}
	return ""
}

// ValidateCampaignWindow checks for campaigns that cannot move or cannot earn.
func ValidateCampaignWindow(name string, spendMin, spendMax, seasonality float64) []string {
	var warnings []string

	if spendMax > 0 && spendMin == spendMax {
		warnings = append(warnings, fmt.Sprintf("Campaign '%s' has a fixed spend of %.2f", name, spendMin))
	}
	if spendMax == 0 {
		warnings = append(warnings, fmt.Sprintf("Campaign '%s' has a zero spend_max and will receive nothing", name))
	}
	if seasonality == 0 {
		warnings = append(warnings, fmt.Sprintf("Campaign '%s' has zero seasonality and cannot earn a return", name))
	}

	return warnings
}

// InputValidator collects non-fatal findings about an allocation request.
type InputValidator struct {
	Budget    float64
	Channels  []ChannelInput
	Campaigns []CampaignInput
}

// ChannelInput describes one curve of an equalization request.
type ChannelInput struct {
	Name    string
	Current float64
	Min     float64
	Max     float64
}

// CampaignInput describes one campaign of a constrained request.
type CampaignInput struct {
	Name        string
	SpendMin    float64
	SpendMax    float64
	Seasonality float64
}

// ValidateAll validates every input and returns warnings
func (v *InputValidator) ValidateAll() []string {
	var warnings []string

	current := 0.0
	for _, ch := range v.Channels {
		current += ch.Current
		if warning := ValidateChannelRange(ch.Name, ch.Current, ch.Min, ch.Max); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	if current > 0 && !mathutil.WithinRelativeTolerance(current, v.Budget, budgetDriftTolerance) {
		warnings = append(warnings, fmt.Sprintf("Current spend %.2f differs from the budget %.2f", current, v.Budget))
	}

	maxTotal := 0.0
	for _, ch := range v.Channels {
		maxTotal += ch.Max
	}
	if len(v.Channels) > 0 && !math.IsInf(maxTotal, 1) && maxTotal < v.Budget {
		warnings = append(warnings, fmt.Sprintf("Channel maximums total %.2f, below the budget %.2f", maxTotal, v.Budget))
	}

	for _, c := range v.Campaigns {
		warnings = append(warnings, ValidateCampaignWindow(c.Name, c.SpendMin, c.SpendMax, c.Seasonality)...)
	}

	return warnings
}
