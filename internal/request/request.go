// Package request decodes optimization, simulation and constrained-solver
// requests from JSON or YAML and normalizes them into engine records.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/mix-optimizer/internal/curve"
	"github.com/iwvelando/mix-optimizer/internal/media"
	"github.com/iwvelando/mix-optimizer/internal/optimizer"
	"github.com/iwvelando/mix-optimizer/internal/simulate"
	"gopkg.in/yaml.v3"
)

// Encodings accepted by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// validate is shared by every request type.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("finite", validateFinite)
}

// validateFinite rejects NaN and infinite numbers.
func validateFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Decode reads a request of the given format ("json" or "yaml") into v and
// validates it.
func Decode(r io.Reader, format string, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading request, %w", err)
	}

	switch strings.ToLower(format) {
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("unable to decode json request, %w", err)
		}
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("unable to decode yaml request, %w", err)
		}
	default:
		return fmt.Errorf("unsupported request format %q", format)
	}

	return Validate(v)
}

// DecodeFile reads a request file, choosing the format from its extension.
func DecodeFile(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening request file, %w", err)
	}
	defer file.Close()
	return Decode(file, FormatForPath(path), v)
}

// FormatForPath maps a file extension onto a request format. Unknown
// extensions are treated as YAML, which also accepts JSON documents.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Validate runs struct validation and flattens the failures into one error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}

// CurveRecord is the flat wire shape of a response curve. The family is
// inferred from the parameters when omitted.
type CurveRecord struct {
	ID                   string   `json:"id" yaml:"id" validate:"required"`
	Channel              string   `json:"channel,omitempty" yaml:"channel,omitempty"`
	Family               string   `json:"family,omitempty" yaml:"family,omitempty" validate:"omitempty,oneof=hill tanh"`
	K                    *float64 `json:"k,omitempty" yaml:"k,omitempty"`
	S                    *float64 `json:"s,omitempty" yaml:"s,omitempty"`
	MaxResponse          *float64 `json:"max_response,omitempty" yaml:"max_response,omitempty"`
	Alpha                *float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Beta                 *float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
	SpendMax             *float64 `json:"spend_max,omitempty" yaml:"spend_max,omitempty"`
	Seasonality          *float64 `json:"seasonality,omitempty" yaml:"seasonality,omitempty"`
	ScaleFactor          *float64 `json:"scale_factor,omitempty" yaml:"scale_factor,omitempty"`
	VolumeCoefficient    *float64 `json:"volume_coefficient,omitempty" yaml:"volume_coefficient,omitempty"`
	BrandLiftCoefficient *float64 `json:"brand_lift_coefficient,omitempty" yaml:"brand_lift_coefficient,omitempty"`
}

// Curve converts the record into a media curve.
func (r CurveRecord) Curve() media.Curve {
	c := media.Curve{
		ID:                   r.ID,
		Channel:              r.Channel,
		Family:               curve.Family(r.Family),
		VolumeCoefficient:    r.VolumeCoefficient,
		BrandLiftCoefficient: r.BrandLiftCoefficient,
	}
	if c.Family == "" {
		c.Family = curve.FamilyHill
		if r.Alpha != nil || r.Beta != nil || r.SpendMax != nil {
			c.Family = curve.FamilyTanh
		}
	}
	c.Hill = curve.Hill{K: value(r.K), S: value(r.S), MaxResponse: value(r.MaxResponse)}
	c.Tanh = curve.Tanh{
		Alpha:       value(r.Alpha),
		Beta:        value(r.Beta),
		SpendMax:    value(r.SpendMax),
		Seasonality: value(r.Seasonality),
		ScaleFactor: value(r.ScaleFactor),
	}
	return c
}

// ConstraintRecord is the wire shape of a spend constraint. A missing max
// leaves the curve unbounded above.
type ConstraintRecord struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty" validate:"omitempty,gte=0"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty" validate:"omitempty,gte=0"`
}

// Constraint converts the record, filling unset bounds with the defaults.
func (r ConstraintRecord) Constraint() media.Constraint {
	c := media.DefaultConstraint()
	if r.Min != nil {
		c.Min = *r.Min
	}
	if r.Max != nil {
		c.Max = *r.Max
	}
	return c
}

// OptimizeRequest asks for marginal-return equalization.
type OptimizeRequest struct {
	Curves             []CurveRecord               `json:"curves" yaml:"curves" validate:"required,dive"`
	CurrentAllocations map[string]float64          `json:"current_allocations,omitempty" yaml:"current_allocations,omitempty" validate:"omitempty,dive,gte=0"`
	TotalBudget        float64                     `json:"total_budget" yaml:"total_budget" validate:"gte=0,finite"`
	CPMs               map[string]CPMEntry         `json:"cpms,omitempty" yaml:"cpms,omitempty"`
	Constraints        map[string]ConstraintRecord `json:"constraints,omitempty" yaml:"constraints,omitempty" validate:"omitempty,dive"`
}

// Build normalizes the request for the optimizer.
func (r OptimizeRequest) Build() optimizer.Request {
	return optimizer.Request{
		Curves:      curves(r.Curves),
		Current:     media.Allocation(r.CurrentAllocations).Clone(),
		TotalBudget: r.TotalBudget,
		CPMs:        cpms(r.CPMs),
		Constraints: constraints(r.Constraints),
	}
}

// SimulateRequest asks for the evaluation of one fixed allocation.
type SimulateRequest struct {
	Curves      []CurveRecord       `json:"curves" yaml:"curves" validate:"required,dive"`
	Allocations map[string]float64  `json:"allocations" yaml:"allocations" validate:"required,dive,gte=0"`
	CPMs        map[string]CPMEntry `json:"cpms,omitempty" yaml:"cpms,omitempty"`
}

// Inputs returns the normalized curves, allocation and CPMs.
func (r SimulateRequest) Inputs() ([]media.Curve, media.Allocation, media.CPMs, error) {
	list := curves(r.Curves)
	if err := media.ValidateCurves(list); err != nil {
		return nil, nil, nil, err
	}
	return list, media.Allocation(r.Allocations).Clone(), cpms(r.CPMs), nil
}

// BatchRequest asks for several what-if allocations against the same curves.
type BatchRequest struct {
	Curves    []CurveRecord       `json:"curves" yaml:"curves" validate:"required,dive"`
	Scenarios []ScenarioRecord    `json:"scenarios" yaml:"scenarios" validate:"required,min=1,dive"`
	CPMs      map[string]CPMEntry `json:"cpms,omitempty" yaml:"cpms,omitempty"`
}

// ScenarioRecord is one named allocation of a batch.
type ScenarioRecord struct {
	Name        string             `json:"name" yaml:"name" validate:"required"`
	Allocations map[string]float64 `json:"allocations" yaml:"allocations" validate:"required,dive,gte=0"`
}

// Inputs returns the normalized curves, scenarios and CPMs.
func (r BatchRequest) Inputs() ([]media.Curve, []simulate.Scenario, media.CPMs, error) {
	list := curves(r.Curves)
	if err := media.ValidateCurves(list); err != nil {
		return nil, nil, nil, err
	}
	scenarios := make([]simulate.Scenario, len(r.Scenarios))
	for i, s := range r.Scenarios {
		scenarios[i] = simulate.Scenario{Name: s.Name, Allocation: media.Allocation(s.Allocations).Clone()}
	}
	return list, scenarios, cpms(r.CPMs), nil
}

// ConstrainedRequest asks the constrained solver for a profit-maximizing
// allocation.
type ConstrainedRequest struct {
	Campaigns   []CampaignRecord `json:"campaigns" yaml:"campaigns" validate:"required,dive"`
	TotalBudget float64          `json:"total_budget" yaml:"total_budget" validate:"gte=0,finite"`
	Algorithm   string           `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
}

// CampaignList converts every campaign record.
func (r ConstrainedRequest) CampaignList() ([]media.Campaign, error) {
	out := make([]media.Campaign, len(r.Campaigns))
	for i, record := range r.Campaigns {
		c, err := record.Campaign()
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func curves(records []CurveRecord) []media.Curve {
	out := make([]media.Curve, len(records))
	for i, r := range records {
		out[i] = r.Curve()
	}
	return out
}

func constraints(records map[string]ConstraintRecord) media.Constraints {
	if len(records) == 0 {
		return nil
	}
	out := make(media.Constraints, len(records))
	for id, r := range records {
		out[id] = r.Constraint()
	}
	return out
}

func cpms(entries map[string]CPMEntry) media.CPMs {
	if len(entries) == 0 {
		return nil
	}
	out := make(media.CPMs, len(entries))
	for id, e := range entries {
		out[id] = e.CPM()
	}
	return out
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
