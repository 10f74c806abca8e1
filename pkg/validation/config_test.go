package validation

import (
	"math"
	"strings"
	"testing"
)

func TestValidateChannelRange(t *testing.T) {
	tests := []struct {
		name       string
		current    float64
		min        float64
		max        float64
		expectWarn string
	}{
		{name: "Inside range", current: 50, min: 10, max: 100},
		{name: "At bounds", current: 10, min: 10, max: 10},
		{name: "Below minimum", current: 5, min: 10, max: 100, expectWarn: "below its minimum"},
		{name: "Above maximum", current: 150, min: 10, max: 100, expectWarn: "above its maximum"},
		{name: "Unbounded maximum", current: 1e12, min: 0, max: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateChannelRange("tv", tt.current, tt.min, tt.max)
			if tt.expectWarn == "" {
				if warning != "" {
					t.Errorf("ValidateChannelRange() unexpected warning %q", warning)
				}
				return
			}
			if !strings.Contains(warning, tt.expectWarn) || !strings.Contains(warning, "'tv'") {
				t.Errorf("ValidateChannelRange() = %q, want mention of %q", warning, tt.expectWarn)
			}
		})
	}
}

func TestValidateCampaignWindow(t *testing.T) {
	tests := []struct {
		name          string
		spendMin      float64
		spendMax      float64
		seasonality   float64
		expectedCount int
	}{
		{name: "Free campaign", spendMin: 0, spendMax: 1000, seasonality: 1, expectedCount: 0},
		{name: "Fixed spend", spendMin: 500, spendMax: 500, seasonality: 1, expectedCount: 1},
		{name: "Zero maximum", spendMin: 0, spendMax: 0, seasonality: 1, expectedCount: 1},
		{name: "Zero seasonality", spendMin: 0, spendMax: 1000, seasonality: 0, expectedCount: 1},
		{name: "Zero maximum and seasonality", spendMin: 0, spendMax: 0, seasonality: 0, expectedCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateCampaignWindow("Spring", tt.spendMin, tt.spendMax, tt.seasonality)
			if len(warnings) != tt.expectedCount {
				t.Errorf("ValidateCampaignWindow() returned %d warnings, expected %d: %v", len(warnings), tt.expectedCount, warnings)
			}
		})
	}
}

func TestInputValidator_ValidateAll(t *testing.T) {
	validator := &InputValidator{
		Budget: 1000,
		Channels: []ChannelInput{
			{Name: "tv", Current: 600, Min: 0, Max: 500},
			{Name: "search", Current: 200, Min: 0, Max: 300},
		},
		Campaigns: []CampaignInput{
			{Name: "Spring", SpendMin: 100, SpendMax: 100, Seasonality: 1},
		},
	}

	warnings := validator.ValidateAll()

	expected := []string{
		"'tv' current spend 600.00 is above its maximum",
		"Current spend 800.00 differs from the budget 1000.00",
		"Channel maximums total 800.00, below the budget 1000.00",
		"'Spring' has a fixed spend",
	}
	if len(warnings) != len(expected) {
		t.Fatalf("ValidateAll() returned %d warnings, expected %d: %v", len(warnings), len(expected), warnings)
	}
	for _, want := range expected {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ValidateAll() missing warning containing %q in %v", want, warnings)
		}
	}
}

func TestInputValidator_NoCurrentSpend(t *testing.T) {
	validator := &InputValidator{
		Budget: 1000,
		Channels: []ChannelInput{
			{Name: "tv", Max: math.Inf(1)},
			{Name: "search", Max: math.Inf(1)},
		},
	}

	if warnings := validator.ValidateAll(); len(warnings) != 0 {
		t.Errorf("ValidateAll() expected no warnings without current spend, got %v", warnings)
	}
}

func TestInputValidator_EmptyInput(t *testing.T) {
	validator := &InputValidator{}

	if warnings := validator.ValidateAll(); len(warnings) != 0 {
		t.Errorf("ValidateAll() expected no warnings for empty input, got %v", warnings)
	}
}
