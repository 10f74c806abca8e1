// Package curve evaluates the response curve families used to score spend:
// the Hill saturation curve and the hyperbolic-tangent profit curve. Both
// expose the response at a spend level and its first derivative with respect
// to spend.
package curve

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/mix-optimizer/pkg/constants"
)

// ErrInvalidCurve marks curve parameters that break monotonicity.
var ErrInvalidCurve = errors.New("invalid curve parameters")

// ConfigError describes a single rejected curve parameter.
type ConfigError struct {
	Family string
	Param  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s curve parameter %s=%g %s", e.Family, e.Param, e.Value, e.Reason)
}

// Unwrap lets callers match configuration errors with errors.Is(err, ErrInvalidCurve).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidCurve
}

// Family names a curve family.
type Family string

const (
	FamilyHill Family = "hill"
	FamilyTanh Family = "tanh"
)

// Hill is the saturation curve max_response * x^s / (k^s + x^s).
type Hill struct {
	K           float64 `json:"k" yaml:"k" mapstructure:"k"`
	S           float64 `json:"s" yaml:"s" mapstructure:"s"`
	MaxResponse float64 `json:"max_response" yaml:"max_response" mapstructure:"max_response"`
}

// Validate reports parameters for which the curve is not non-decreasing.
func (h Hill) Validate() error {
	if !(h.K > 0) {
		return &ConfigError{Family: string(FamilyHill), Param: "k", Value: h.K, Reason: "must be positive"}
	}
	if !(h.S > 0) {
		return &ConfigError{Family: string(FamilyHill), Param: "s", Value: h.S, Reason: "must be positive"}
	}
	if !(h.MaxResponse >= 0) {
		return &ConfigError{Family: string(FamilyHill), Param: "max_response", Value: h.MaxResponse, Reason: "must not be negative"}
	}
	return nil
}

// Response returns the modeled response at spend. Non-positive spend yields 0.
func (h Hill) Response(spend float64) float64 {
	if spend <= 0 {
		return 0
	}
	spendS := math.Pow(spend, h.S)
	if math.IsInf(spendS, 1) {
		// overflow means the asymptote has been reached
		return h.MaxResponse
	}
	denominator := math.Pow(h.K, h.S) + spendS
	if denominator == 0 {
		return 0
	}
	return h.MaxResponse * spendS / denominator
}

// Marginal returns d(response)/d(spend). The first dollar has unbounded
// relative return, so non-positive spend yields +Inf.
func (h Hill) Marginal(spend float64) float64 {
	if spend <= 0 {
		return math.Inf(1)
	}
	kS := math.Pow(h.K, h.S)
	spendS := math.Pow(spend, h.S)
	denominator := math.Pow(kS+spendS, 2)
	if denominator == 0 || math.IsInf(denominator, 1) {
		return 0
	}
	marginal := h.MaxResponse * h.S * kS * math.Pow(spend, h.S-1) / denominator
	if math.IsNaN(marginal) {
		return 0
	}
	return marginal
}

// Tanh is the profit curve tanh(alpha*(x/spend_max)^beta) * scale * seasonality.
type Tanh struct {
	Alpha       float64 `json:"alpha" yaml:"alpha" mapstructure:"alpha"`
	Beta        float64 `json:"beta" yaml:"beta" mapstructure:"beta"`
	SpendMax    float64 `json:"spend_max" yaml:"spend_max" mapstructure:"spend_max"`
	Seasonality float64 `json:"seasonality,omitempty" yaml:"seasonality,omitempty" mapstructure:"seasonality"`
	ScaleFactor float64 `json:"scale_factor,omitempty" yaml:"scale_factor,omitempty" mapstructure:"scale_factor"`
}

// WithDefaults fills a zero seasonality with 1 and a zero scale factor with
// the default profit scale.
func (t Tanh) WithDefaults() Tanh {
	if t.Seasonality == 0 {
		t.Seasonality = 1
	}
	if t.ScaleFactor == 0 {
		t.ScaleFactor = constants.DefaultScaleFactor
	}
	return t
}

// Validate reports parameters for which the curve is not non-decreasing.
func (t Tanh) Validate() error {
	if !(t.Alpha > 0) {
		return &ConfigError{Family: string(FamilyTanh), Param: "alpha", Value: t.Alpha, Reason: "must be positive"}
	}
	if !(t.Beta > 0) {
		return &ConfigError{Family: string(FamilyTanh), Param: "beta", Value: t.Beta, Reason: "must be positive"}
	}
	if !(t.SpendMax > 0) {
		return &ConfigError{Family: string(FamilyTanh), Param: "spend_max", Value: t.SpendMax, Reason: "must be positive"}
	}
	if t.Seasonality < 0 || math.IsNaN(t.Seasonality) {
		return &ConfigError{Family: string(FamilyTanh), Param: "seasonality", Value: t.Seasonality, Reason: "must not be negative"}
	}
	if t.ScaleFactor < 0 || math.IsNaN(t.ScaleFactor) {
		return &ConfigError{Family: string(FamilyTanh), Param: "scale_factor", Value: t.ScaleFactor, Reason: "must not be negative"}
	}
	return nil
}

// Profit returns the modeled profit at spend.
func (t Tanh) Profit(spend float64) float64 {
	if spend <= 0 || t.SpendMax <= 0 {
		return 0
	}
	normalized := spend / t.SpendMax
	return math.Tanh(t.Alpha*math.Pow(normalized, t.Beta)) * t.ScaleFactor * t.Seasonality
}

// Gradient returns the analytic d(profit)/d(spend).
func (t Tanh) Gradient(spend float64) float64 {
	if spend <= 0 || t.SpendMax <= 0 {
		return 0
	}
	normalized := spend / t.SpendMax
	z := t.Alpha * math.Pow(normalized, t.Beta)
	th := math.Tanh(z)
	sech2 := 1 - th*th
	return t.ScaleFactor * t.Seasonality * sech2 * t.Alpha * t.Beta * math.Pow(normalized, t.Beta-1) / t.SpendMax
}

// FiniteDifference approximates the marginal profit with a forward difference
// of width delta. Negative spend is treated as zero, so FiniteDifference(0, d)
// is the average return of the first d spent.
func (t Tanh) FiniteDifference(spend, delta float64) float64 {
	if delta <= 0 {
		return 0
	}
	spend = math.Max(spend, 0)
	return (t.Profit(spend+delta) - t.Profit(spend)) / delta
}
