// Package media defines the in-memory records the allocation engine works on:
// response curves, spend constraints, CPM entries, allocations, and the
// campaign records consumed by the constrained solver.
package media

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/mix-optimizer/internal/curve"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
)

// ErrInvalidConstraint marks a spend constraint that cannot be satisfied.
var ErrInvalidConstraint = errors.New("invalid spend constraint")

// Curve identifies one channel's response model.
type Curve struct {
	ID                   string       `json:"id" yaml:"id"`
	Channel              string       `json:"channel,omitempty" yaml:"channel,omitempty"`
	Family               curve.Family `json:"family,omitempty" yaml:"family,omitempty"`
	Hill                 curve.Hill   `json:"hill" yaml:"hill"`
	Tanh                 curve.Tanh   `json:"tanh" yaml:"tanh"`
	VolumeCoefficient    *float64     `json:"volume_coefficient,omitempty" yaml:"volume_coefficient,omitempty"`
	BrandLiftCoefficient *float64     `json:"brand_lift_coefficient,omitempty" yaml:"brand_lift_coefficient,omitempty"`
}

// Label returns the display channel, falling back to the id.
func (c Curve) Label() string {
	if c.Channel != "" {
		return c.Channel
	}
	return c.ID
}

// IsTanh reports whether the curve uses the hyperbolic-tangent family.
func (c Curve) IsTanh() bool {
	return c.Family == curve.FamilyTanh
}

// Response evaluates the curve at spend.
func (c Curve) Response(spend float64) float64 {
	if c.IsTanh() {
		return c.Tanh.WithDefaults().Profit(spend)
	}
	return c.Hill.Response(spend)
}

// Marginal evaluates the first derivative of the curve at spend.
func (c Curve) Marginal(spend float64) float64 {
	if c.IsTanh() {
		return c.Tanh.WithDefaults().Gradient(spend)
	}
	return c.Hill.Marginal(spend)
}

// Ceiling returns the asymptotic response used to express brand lift as a
// share of saturation.
func (c Curve) Ceiling() float64 {
	if c.IsTanh() {
		t := c.Tanh.WithDefaults()
		return t.ScaleFactor * t.Seasonality
	}
	return c.Hill.MaxResponse
}

// Volume returns the volume coefficient or its default.
func (c Curve) Volume() float64 {
	if c.VolumeCoefficient == nil {
		return constants.DefaultVolumeCoefficient
	}
	return *c.VolumeCoefficient
}

// BrandLift returns the brand lift coefficient or its default.
func (c Curve) BrandLift() float64 {
	if c.BrandLiftCoefficient == nil {
		return constants.DefaultBrandLiftCoefficient
	}
	return *c.BrandLiftCoefficient
}

// Validate checks the curve's family parameters.
func (c Curve) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("curve id cannot be empty")
	}
	var err error
	switch c.Family {
	case curve.FamilyHill, "":
		err = c.Hill.Validate()
	case curve.FamilyTanh:
		err = c.Tanh.Validate()
	default:
		return fmt.Errorf("curve %s: unsupported family %q", c.ID, c.Family)
	}
	if err != nil {
		return fmt.Errorf("curve %s: %w", c.ID, err)
	}
	return nil
}

// ValidateCurves validates every curve and rejects duplicate ids.
func ValidateCurves(curves []Curve) error {
	seen := make(map[string]struct{}, len(curves))
	var errs []error
	for _, c := range curves {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[c.ID]; dup {
			errs = append(errs, fmt.Errorf("curve %s: duplicate id", c.ID))
			continue
		}
		seen[c.ID] = struct{}{}
	}
	return errors.Join(errs...)
}

// Constraint bounds the spend of a single curve.
type Constraint struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultConstraint is the unconstrained range [0, +Inf).
func DefaultConstraint() Constraint {
	return Constraint{Min: 0, Max: constants.Unbounded}
}

// Validate rejects inverted or negative bounds.
func (c Constraint) Validate() error {
	if math.IsNaN(c.Min) || math.IsNaN(c.Max) {
		return fmt.Errorf("%w: bounds must be numbers", ErrInvalidConstraint)
	}
	if c.Min < 0 {
		return fmt.Errorf("%w: min %.2f must not be negative", ErrInvalidConstraint, c.Min)
	}
	if c.Min > c.Max {
		return fmt.Errorf("%w: min %.2f must not exceed max %.2f", ErrInvalidConstraint, c.Min, c.Max)
	}
	return nil
}

// Constraints maps curve id to its spend bounds.
type Constraints map[string]Constraint

// For returns the constraint for id or the default range.
func (cs Constraints) For(id string) Constraint {
	if c, ok := cs[id]; ok {
		return c
	}
	return DefaultConstraint()
}

// Validate checks every constraint in the map.
func (cs Constraints) Validate() error {
	var errs []error
	for _, id := range sortedKeys(cs) {
		if err := cs[id].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("constraint %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// MinTotal sums the minimum spend of each curve, in curve order.
func (cs Constraints) MinTotal(curves []Curve) float64 {
	total := 0.0
	for _, c := range curves {
		total += cs.For(c.ID).Min
	}
	return total
}

// CPM carries a curve's cost per thousand impressions and an optional spend
// ceiling derived from available inventory.
type CPM struct {
	CPM      float64  `json:"cpm" yaml:"cpm"`
	MaxSpend *float64 `json:"max_spend,omitempty" yaml:"max_spend,omitempty"`
}

// Impressions converts spend into impressions, 0 when the CPM is unusable.
func (c CPM) Impressions(spend float64) float64 {
	if c.CPM <= 0 {
		return 0
	}
	return spend / c.CPM * constants.ImpressionsPerCPM
}

// CPMs maps curve id to its CPM entry.
type CPMs map[string]CPM

// Impressions returns impressions for id, 0 when no CPM is known.
func (cs CPMs) Impressions(id string, spend float64) float64 {
	entry, ok := cs[id]
	if !ok {
		return 0
	}
	return entry.Impressions(spend)
}

// Tighten applies CPM-derived spend ceilings to constraints. Ceilings only
// ever lower an existing max; curves without a CPM entry keep their bounds.
func (cs CPMs) Tighten(curves []Curve, constraints Constraints) Constraints {
	out := make(Constraints, len(curves))
	for _, c := range curves {
		bound := constraints.For(c.ID)
		if entry, ok := cs[c.ID]; ok && entry.MaxSpend != nil && *entry.MaxSpend < bound.Max {
			bound.Max = *entry.MaxSpend
		}
		out[c.ID] = bound
	}
	return out
}

// Allocation maps curve id to a non-negative spend.
type Allocation map[string]float64

// Total sums the allocation in key order so repeated calls agree bit for bit.
func (a Allocation) Total() float64 {
	total := 0.0
	for _, id := range a.Keys() {
		total += a[id]
	}
	return total
}

// Clone returns an independent copy.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns the allocation ids in sorted order.
func (a Allocation) Keys() []string {
	return sortedKeys(a)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
