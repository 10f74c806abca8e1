package request

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/mix-optimizer/internal/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const optimizeJSON = `{
  "curves": [
    {"id": "A", "channel": "TV", "k": 100000, "s": 2, "max_response": 1000000},
    {"id": "B", "channel": "Social", "k": 50000, "s": 1.5, "max_response": 500000, "volume_coefficient": 2.5}
  ],
  "current_allocations": {"A": 200000, "B": 200000},
  "total_budget": 500000,
  "cpms": {"A": 12.5, "B": {"cpm": 4, "max_spend": 250000}},
  "constraints": {"A": {"min": 10000}, "B": {"min": 0, "max": 300000}}
}`

func TestDecodeOptimizeJSON(t *testing.T) {
	var req OptimizeRequest
	require.NoError(t, Decode(strings.NewReader(optimizeJSON), FormatJSON, &req))

	built := req.Build()
	require.Len(t, built.Curves, 2)
	assert.Equal(t, curve.FamilyHill, built.Curves[0].Family)
	assert.Equal(t, 100000.0, built.Curves[0].Hill.K)
	assert.Equal(t, 2.5, built.Curves[1].Volume())
	assert.Equal(t, 500000.0, built.TotalBudget)
	assert.Equal(t, 200000.0, built.Current["B"])

	assert.Equal(t, 12.5, built.CPMs["A"].CPM)
	assert.Nil(t, built.CPMs["A"].MaxSpend)
	require.NotNil(t, built.CPMs["B"].MaxSpend)
	assert.Equal(t, 250000.0, *built.CPMs["B"].MaxSpend)

	assert.Equal(t, 10000.0, built.Constraints["A"].Min)
	assert.True(t, math.IsInf(built.Constraints["A"].Max, 1), "missing max must be unbounded")
	assert.Equal(t, 300000.0, built.Constraints["B"].Max)
}

func TestDecodeOptimizeYAML(t *testing.T) {
	doc := `
curves:
  - id: A
    k: 100000
    s: 2
    max_response: 1000000
  - id: T
    alpha: 2.5
    beta: 0.7
    spend_max: 100000
total_budget: 1000
cpms:
  A: 10
  T:
    cpm: 3
    max_spend: 500
`
	var req OptimizeRequest
	require.NoError(t, Decode(strings.NewReader(doc), FormatYAML, &req))

	built := req.Build()
	assert.Equal(t, curve.FamilyHill, built.Curves[0].Family)
	assert.Equal(t, curve.FamilyTanh, built.Curves[1].Family, "tanh inferred from alpha/beta/spend_max")
	assert.Equal(t, 10.0, built.CPMs["A"].CPM)
	assert.Equal(t, 500.0, *built.CPMs["T"].MaxSpend)
	assert.Empty(t, built.Current)
}

func TestDecodeRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing curve id", `{"curves":[{"k":1,"s":1,"max_response":1}],"total_budget":1}`, "ID"},
		{"negative budget", `{"curves":[],"total_budget":-5}`, "TotalBudget"},
		{"unknown family", `{"curves":[{"id":"x","family":"log"}],"total_budget":1}`, "Family"},
		{"negative current", `{"curves":[],"total_budget":1,"current_allocations":{"x":-1}}`, "CurrentAllocations"},
		{"bad cpm", `{"curves":[],"total_budget":1,"cpms":{"x":"cheap"}}`, "cpm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req OptimizeRequest
			err := Decode(strings.NewReader(tt.doc), FormatJSON, &req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	var req OptimizeRequest
	assert.Error(t, Decode(strings.NewReader("{}"), "xml", &req))
}

func TestCampaignRecordPeriodKeys(t *testing.T) {
	doc := `{
  "campaigns": [
    {"campaignproduct": "Campaign_03", "campaigntype": "awareness", "Channel": "TV",
     "mediagroup": "Video", "alpha": 1.8, "beta": 0.8, "spend_max": 200000, "spend_min": 20000,
     "W1": 1.5, "W2": 1.2, "W3": 0.8, "W4": "2.0", "C1": 1, "C2": "1", "C3": 0, "C4": true}
  ],
  "total_budget": 250000,
  "algorithm": "cobyla"
}`
	var req ConstrainedRequest
	require.NoError(t, Decode(strings.NewReader(doc), FormatJSON, &req))

	campaigns, err := req.CampaignList()
	require.NoError(t, err)
	require.Len(t, campaigns, 1)

	c := campaigns[0]
	assert.Equal(t, "Campaign_03", c.Name)
	assert.Equal(t, "awareness", c.Type)
	assert.Equal(t, "TV", c.Channel)
	assert.Equal(t, "Video", c.MediaGroup)
	require.Len(t, c.Seasonality, 52, "keyed records span the full year")
	require.Len(t, c.Consideration, 52)
	assert.Equal(t, []float64{1.5, 1.2, 0.8, 2.0}, c.Seasonality[:4])
	assert.Equal(t, []bool{true, true, false, true}, c.Consideration[:4])
	for week := 4; week < 52; week++ {
		assert.Equal(t, 1.0, c.Seasonality[week], "week %d", week+1)
		assert.True(t, c.Consideration[week], "week %d", week+1)
	}
	// 51 considered weeks: three supplied plus 48 defaults
	assert.InDelta(t, (1.5+1.2+2.0+48)/51, c.EffectiveSeasonality(), 1e-12)
}

func TestCampaignRecordYAMLArrays(t *testing.T) {
	doc := `
campaigns:
  - name: Campaign_01
    alpha: 2.5
    beta: 0.7
    spend_max: 100000
    spend_min: 10000
    seasonality: [1.0, 1.2, 1.5, 1.0]
    consideration: [true, true, true, false]
    W2: 2.0
total_budget: 250000
`
	var req ConstrainedRequest
	require.NoError(t, Decode(strings.NewReader(doc), FormatYAML, &req))

	campaigns, err := req.CampaignList()
	require.NoError(t, err)
	require.Len(t, campaigns[0].Seasonality, 52)
	assert.Equal(t, []float64{1.0, 2.0, 1.5, 1.0}, campaigns[0].Seasonality[:4], "keyed period overrides the array")
	assert.Equal(t, []bool{true, true, true, false}, campaigns[0].Consideration[:4])
	assert.True(t, campaigns[0].Consideration[51])
}

func TestCampaignRecordArraysKeepLength(t *testing.T) {
	doc := `{"campaigns":[{"name":"c","alpha":1,"beta":1,"spend_max":10,"seasonality":[1.2,0.8]}],"total_budget":5}`
	var req ConstrainedRequest
	require.NoError(t, Decode(strings.NewReader(doc), FormatJSON, &req))

	campaigns, err := req.CampaignList()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.2, 0.8}, campaigns[0].Seasonality)
	assert.Equal(t, []bool{true, true}, campaigns[0].Consideration)
	assert.InDelta(t, 1.0, campaigns[0].EffectiveSeasonality(), 1e-12)
}

func TestCampaignRecordGapsAndLimits(t *testing.T) {
	var req ConstrainedRequest
	doc := `{"campaigns":[{"name":"c","alpha":1,"beta":1,"spend_max":10,"W3":2}],"total_budget":5}`
	require.NoError(t, Decode(strings.NewReader(doc), FormatJSON, &req))
	campaigns, err := req.CampaignList()
	require.NoError(t, err)
	require.Len(t, campaigns[0].Seasonality, 52)
	assert.Equal(t, []float64{1, 1, 2, 1}, campaigns[0].Seasonality[:4])
	assert.NotContains(t, campaigns[0].Consideration, false)
	assert.InDelta(t, 53.0/52, campaigns[0].EffectiveSeasonality(), 1e-12)

	tooLong := `{"campaigns":[{"name":"c","alpha":1,"beta":1,"spend_max":10,"W53":2}],"total_budget":5}`
	err = Decode(strings.NewReader(tooLong), FormatJSON, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "W53")

	unnamed := `{"campaigns":[{"alpha":1,"beta":1,"spend_max":10}],"total_budget":5}`
	err = Decode(strings.NewReader(unnamed), FormatJSON, &ConstrainedRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")

	badFlag := `{"campaigns":[{"name":"c","alpha":1,"beta":1,"spend_max":10,"C1":"maybe"}],"total_budget":5}`
	assert.Error(t, Decode(strings.NewReader(badFlag), FormatJSON, &ConstrainedRequest{}))
}

func TestBatchRequestInputs(t *testing.T) {
	doc := `{
  "curves": [{"id": "A", "k": 100, "s": 1, "max_response": 1000}],
  "scenarios": [
    {"name": "low", "allocations": {"A": 10}},
    {"name": "high", "allocations": {"A": 1000}}
  ]
}`
	var req BatchRequest
	require.NoError(t, Decode(strings.NewReader(doc), FormatJSON, &req))

	curves, scenarios, cpms, err := req.Inputs()
	require.NoError(t, err)
	assert.Len(t, curves, 1)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "high", scenarios[1].Name)
	assert.Equal(t, 1000.0, scenarios[1].Allocation["A"])
	assert.Nil(t, cpms)

	var empty BatchRequest
	assert.Error(t, Decode(strings.NewReader(`{"curves":[],"scenarios":[]}`), FormatJSON, &empty))
}

func TestSimulateRequestRejectsBadCurves(t *testing.T) {
	var req SimulateRequest
	doc := `{"curves":[{"id":"A","k":0,"s":1,"max_response":1}],"allocations":{"A":5}}`
	require.NoError(t, Decode(strings.NewReader(doc), FormatJSON, &req))
	_, _, _, err := req.Inputs()
	assert.ErrorIs(t, err, curve.ErrInvalidCurve)
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(path, []byte(optimizeJSON), 0o600))

	var req OptimizeRequest
	require.NoError(t, DecodeFile(path, &req))
	assert.Len(t, req.Curves, 2)

	assert.Equal(t, FormatYAML, FormatForPath("req.yml"))
	assert.Equal(t, FormatJSON, FormatForPath("REQ.JSON"))
	assert.Error(t, DecodeFile(filepath.Join(dir, "missing.yaml"), &req))
}
