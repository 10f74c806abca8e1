package optimization

import (
	"encoding/json"
	"math"
)

// JSON has no encoding for infinite or NaN numbers, and the marginal return
// of a curve at zero spend is +Inf. Those values are written as null.

// MarshalJSON implements json.Marshaler.
func (c ChannelResult) MarshalJSON() ([]byte, error) {
	type alias ChannelResult
	return json.Marshal(struct {
		alias
		MarginalROI *float64 `json:"marginal_roi"`
	}{alias(c), finite(c.MarginalROI)})
}

// MarshalJSON implements json.Marshaler.
func (c ChannelEvaluation) MarshalJSON() ([]byte, error) {
	type alias ChannelEvaluation
	return json.Marshal(struct {
		alias
		MarginalROI *float64 `json:"marginal_roi"`
	}{alias(c), finite(c.MarginalROI)})
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
