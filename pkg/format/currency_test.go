package format

import (
	"math"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"Zero", 0, "$0.00"},
		{"Small", 12.5, "$12.50"},
		{"Thousands", 1234.567, "$1,234.57"},
		{"Millions", 2500000, "$2,500,000.00"},
		{"Negative", -80000, "-$80,000.00"},
		{"Negative rounds to zero", -0.001, "$0.00"},
		{"Unbounded", math.Inf(1), "unbounded"},
		{"Negative unbounded", math.Inf(-1), "-unbounded"},
		{"Not a number", math.NaN(), "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.want {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestRange(t *testing.T) {
	if got := Range(10000, 250000); got != "$10,000.00 to $250,000.00" {
		t.Errorf("Range() = %q", got)
	}
	if got := Range(0, math.Inf(1)); got != "$0.00 to unbounded" {
		t.Errorf("Range() = %q", got)
	}
}
