// Package format renders spend and profit amounts for reports and messages.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unbounded labels an infinite spend limit.
const Unbounded = "unbounded"

var printer = message.NewPrinter(language.English)

// Currency returns an amount with a dollar sign and thousands separators
// (e.g. "-$1,234.56"). Infinite amounts render as Unbounded and NaN as "n/a".
func Currency(amount float64) string {
	switch {
	case math.IsNaN(amount):
		return "n/a"
	case math.IsInf(amount, 1):
		return Unbounded
	case math.IsInf(amount, -1):
		return "-" + Unbounded
	}

	sign := ""
	if amount < 0 {
		sign = "-"
	}
	// avoid "-$0.00" for amounts that round to zero
	if math.Abs(amount) < 0.005 {
		sign = ""
	}
	return sign + "$" + printer.Sprintf("%.2f", math.Abs(amount))
}

// Range renders a spend range as "min to max".
func Range(low, high float64) string {
	return Currency(low) + " to " + Currency(high)
}
