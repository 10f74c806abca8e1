package request

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/mix-optimizer/internal/media"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"gopkg.in/yaml.v3"
)

// CampaignRecord is the wire shape of a tanh campaign. Period data arrives
// either as seasonality/consideration arrays or as W1..W52 and C1..C52 keys;
// keyed periods override array entries.
type CampaignRecord struct {
	Name          string    `json:"name,omitempty" yaml:"name,omitempty" validate:"required_without=Product"`
	Product       string    `json:"campaignproduct,omitempty" yaml:"campaignproduct,omitempty"`
	Type          string    `json:"campaign_type,omitempty" yaml:"campaign_type,omitempty"`
	LegacyType    string    `json:"campaigntype,omitempty" yaml:"campaigntype,omitempty"`
	Channel       string    `json:"channel,omitempty" yaml:"channel,omitempty"`
	Publisher     string    `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	MediaGroup    string    `json:"media_group,omitempty" yaml:"media_group,omitempty"`
	LegacyGroup   string    `json:"mediagroup,omitempty" yaml:"mediagroup,omitempty"`
	Alpha         float64   `json:"alpha" yaml:"alpha" validate:"gt=0,finite"`
	Beta          float64   `json:"beta" yaml:"beta" validate:"gt=0,finite"`
	SpendMax      float64   `json:"spend_max" yaml:"spend_max" validate:"gt=0,finite"`
	SpendMin      float64   `json:"spend_min" yaml:"spend_min" validate:"gte=0,finite"`
	Seasonality   []float64 `json:"seasonality,omitempty" yaml:"seasonality,omitempty" validate:"max=52,dive,gte=0"`
	Consideration []bool    `json:"consideration,omitempty" yaml:"consideration,omitempty" validate:"max=52"`

	Weeks      map[int]float64 `json:"-" yaml:"-"`
	Considered map[int]bool    `json:"-" yaml:"-"`
}

// plainCampaign drops the custom unmarshalers.
type plainCampaign CampaignRecord

// UnmarshalJSON implements json.Unmarshaler.
func (r *CampaignRecord) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*plainCampaign)(r)); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return r.collectPeriods(raw)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *CampaignRecord) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode((*plainCampaign)(r)); err != nil {
		return err
	}
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return r.collectPeriods(raw)
}

func (r *CampaignRecord) collectPeriods(raw map[string]any) error {
	for key, v := range raw {
		kind, period, ok := periodKey(key)
		if !ok {
			continue
		}
		if period > constants.MaxPeriods {
			return fmt.Errorf("campaign %s: period %s exceeds %d", r.DisplayName(), key, constants.MaxPeriods)
		}
		switch kind {
		case 'W':
			f, err := number(v)
			if err != nil {
				return fmt.Errorf("campaign %s: %s: %w", r.DisplayName(), key, err)
			}
			if r.Weeks == nil {
				r.Weeks = make(map[int]float64)
			}
			r.Weeks[period] = f
		case 'C':
			b, err := flag(v)
			if err != nil {
				return fmt.Errorf("campaign %s: %s: %w", r.DisplayName(), key, err)
			}
			if r.Considered == nil {
				r.Considered = make(map[int]bool)
			}
			r.Considered[period] = b
		}
	}
	return nil
}

// DisplayName returns the campaign name, falling back to the product.
func (r CampaignRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Product
}

// Campaign converts the record. A record carrying any W/C key describes a
// full year: every one of the 52 periods it omits takes seasonality 1 and
// counts as considered. Array-only records keep their own length.
func (r CampaignRecord) Campaign() (media.Campaign, error) {
	c := media.Campaign{
		Name:       r.DisplayName(),
		Type:       firstNonEmpty(r.Type, r.LegacyType),
		Channel:    r.Channel,
		Publisher:  r.Publisher,
		MediaGroup: firstNonEmpty(r.MediaGroup, r.LegacyGroup),
		Alpha:      r.Alpha,
		Beta:       r.Beta,
		SpendMax:   r.SpendMax,
		SpendMin:   r.SpendMin,
	}

	periods := max(len(r.Seasonality), len(r.Consideration))
	if len(r.Weeks) > 0 || len(r.Considered) > 0 {
		periods = constants.MaxPeriods
	}
	if periods > constants.MaxPeriods {
		return media.Campaign{}, fmt.Errorf("campaign %s: %d periods exceeds %d", c.Name, periods, constants.MaxPeriods)
	}
	if periods == 0 {
		return c, nil
	}

	c.Seasonality = make([]float64, periods)
	c.Consideration = make([]bool, periods)
	for i := 0; i < periods; i++ {
		c.Seasonality[i] = 1
		if i < len(r.Seasonality) {
			c.Seasonality[i] = r.Seasonality[i]
		}
		if w, ok := r.Weeks[i+1]; ok {
			c.Seasonality[i] = w
		}
		c.Consideration[i] = true
		if i < len(r.Consideration) {
			c.Consideration[i] = r.Consideration[i]
		}
		if considered, ok := r.Considered[i+1]; ok {
			c.Consideration[i] = considered
		}
	}
	return c, nil
}

// periodKey parses W<n> and C<n>.
func periodKey(key string) (byte, int, bool) {
	if len(key) < 2 || (key[0] != 'W' && key[0] != 'C') {
		return 0, 0, false
	}
	n, err := strconv.Atoi(key[1:])
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return key[0], n, true
}

func number(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid seasonality %q", t)
		}
		return f, nil
	case nil:
		return 1, nil
	default:
		return 0, fmt.Errorf("invalid seasonality %v", v)
	}
}

func flag(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case string:
		s := strings.TrimSpace(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false, fmt.Errorf("invalid consideration flag %q", t)
		}
		return f != 0, nil
	case nil:
		return true, nil
	default:
		return false, fmt.Errorf("invalid consideration flag %v", v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
