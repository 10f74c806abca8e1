// Package constants provides shared constants for the mix-optimizer application.
package constants

import "math"

// Iterative optimizer defaults
const (
	// DefaultMaxIterations is the iteration cap for marginal-return equalization
	DefaultMaxIterations = 100

	// DefaultEpsilon is the relative marginal-return gap treated as equalized (1%)
	DefaultEpsilon = 0.01

	// DefaultStepSize is the share of the donor's spend moved per iteration (5%)
	DefaultStepSize = 0.05

	// DefaultMarginalFloor bounds the denominator of the relative gap
	DefaultMarginalFloor = 0.01
)

// Constrained solver defaults
const (
	// DefaultXTolRel is the relative tolerance on the spend vector
	DefaultXTolRel = 1e-6

	// DefaultFTolRel is the relative tolerance on the objective
	DefaultFTolRel = 1e-6

	// DefaultMaxEvaluations is the objective evaluation cap
	DefaultMaxEvaluations = 1000

	// DefaultConstraintTolerance is the slack allowed on the budget inequality
	DefaultConstraintTolerance = 1e-8

	// DefaultScaleFactor multiplies the tanh response into profit units
	DefaultScaleFactor = 1000000.0

	// DefaultAlgorithm is the solver algorithm used when none is named
	DefaultAlgorithm = "SLSQP"

	// MaxPeriods is the number of weekly periods carried by a campaign
	MaxPeriods = 52

	// PolishTolerance scales the solver tolerances for the feasible-set
	// refinement that follows the penalty rounds
	PolishTolerance = 1e-3

	// FirstUnitSpend is the spend increment priced as the marginal return of
	// an unfunded campaign
	FirstUnitSpend = 1.0
)

// Curve record defaults
const (
	// DefaultVolumeCoefficient converts response into incremental volume
	DefaultVolumeCoefficient = 1.0

	// DefaultBrandLiftCoefficient converts saturation into brand lift
	DefaultBrandLiftCoefficient = 0.1

	// ImpressionsPerCPM is the number of impressions a CPM prices
	ImpressionsPerCPM = 1000.0
)

// Unbounded is the default upper spend limit.
var Unbounded = math.Inf(1)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of configuration keys
	EnvPrefix = "MIXOPT"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Reporting constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
