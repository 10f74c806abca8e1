package media

import (
	"fmt"

	"github.com/iwvelando/mix-optimizer/internal/curve"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
)

// Campaign is a tanh-modeled campaign with weekly seasonality.
type Campaign struct {
	Name       string  `json:"name" yaml:"name"`
	Type       string  `json:"campaign_type,omitempty" yaml:"campaign_type,omitempty"`
	Channel    string  `json:"channel,omitempty" yaml:"channel,omitempty"`
	Publisher  string  `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	MediaGroup string  `json:"media_group,omitempty" yaml:"media_group,omitempty"`
	Alpha      float64 `json:"alpha" yaml:"alpha"`
	Beta       float64 `json:"beta" yaml:"beta"`
	SpendMax   float64 `json:"spend_max" yaml:"spend_max"`
	SpendMin   float64 `json:"spend_min" yaml:"spend_min"`
	// Seasonality holds per-period multipliers, period 1 first.
	Seasonality []float64 `json:"seasonality,omitempty" yaml:"seasonality,omitempty"`
	// Consideration flags which periods count toward the seasonality average.
	// Periods without a flag count.
	Consideration []bool `json:"consideration,omitempty" yaml:"consideration,omitempty"`
}

// EffectiveSeasonality averages the seasonality of considered periods. With
// no considered period the multiplier is 1.
func (c Campaign) EffectiveSeasonality() float64 {
	total := 0.0
	considered := 0
	for i, value := range c.Seasonality {
		if i >= constants.MaxPeriods {
			break
		}
		if i < len(c.Consideration) && !c.Consideration[i] {
			continue
		}
		total += value
		considered++
	}
	if considered == 0 {
		return 1
	}
	return total / float64(considered)
}

// Curve returns the campaign's profit curve at its effective seasonality.
func (c Campaign) Curve(scaleFactor float64) curve.Tanh {
	return curve.Tanh{
		Alpha:       c.Alpha,
		Beta:        c.Beta,
		SpendMax:    c.SpendMax,
		Seasonality: c.EffectiveSeasonality(),
		ScaleFactor: scaleFactor,
	}
}

// Bounds returns the campaign's spend range [SpendMin, SpendMax].
func (c Campaign) Bounds() Constraint {
	return Constraint{Min: c.SpendMin, Max: c.SpendMax}
}

// Validate checks the curve parameters and the spend bounds.
func (c Campaign) Validate() error {
	if len(c.Seasonality) > constants.MaxPeriods {
		return fmt.Errorf("campaign %s: %d seasonality periods exceeds %d", c.Name, len(c.Seasonality), constants.MaxPeriods)
	}
	if err := c.Curve(constants.DefaultScaleFactor).Validate(); err != nil {
		return fmt.Errorf("campaign %s: %w", c.Name, err)
	}
	if err := c.Bounds().Validate(); err != nil {
		return fmt.Errorf("campaign %s: %w", c.Name, err)
	}
	return nil
}
