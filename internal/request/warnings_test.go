package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeRequestWarnings(t *testing.T) {
	var req OptimizeRequest
	require.NoError(t, Decode(strings.NewReader(optimizeJSON), FormatJSON, &req))

	warnings := req.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "differs from the budget")

	req.CurrentAllocations["B"] = 300000
	warnings = req.Warnings()
	require.Len(t, warnings, 1, "current spend now matches the budget")
	assert.Contains(t, warnings[0], "'Social' current spend 300000.00 is above its maximum 250000.00")
}

func TestConstrainedRequestWarnings(t *testing.T) {
	doc := `
campaigns:
  - name: Fixed
    alpha: 2
    beta: 0.5
    spend_min: 1000
    spend_max: 1000
  - name: Dark
    alpha: 2
    beta: 0.5
    spend_max: 5000
    seasonality: [0, 0]
  - name: Open
    alpha: 2
    beta: 0.5
    spend_max: 5000
total_budget: 8000
`
	var req ConstrainedRequest
	require.NoError(t, Decode(strings.NewReader(doc), FormatYAML, &req))

	warnings := req.Warnings()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "'Fixed' has a fixed spend")
	assert.Contains(t, warnings[1], "'Dark' has zero seasonality")
}
