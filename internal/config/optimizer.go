package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/mix-optimizer/pkg/constants"
)

// Solver algorithm names accepted by the constrained optimizer.
const (
	AlgorithmSLSQP  = "SLSQP"
	AlgorithmCOBYLA = "COBYLA"
	AlgorithmMMA    = "MMA"
	AlgorithmAUGLAG = "AUGLAG"
	AlgorithmBOBYQA = "BOBYQA"
)

// OptimizerConfig tunes the marginal-return equalization heuristic.
type OptimizerConfig struct {
	MaxIterations int     `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
	Epsilon       float64 `yaml:"epsilon,omitempty" mapstructure:"epsilon"`
	StepSize      float64 `yaml:"stepSize,omitempty" mapstructure:"stepSize"`
	MarginalFloor float64 `yaml:"marginalFloor,omitempty" mapstructure:"marginalFloor"`
}

// Normalize ensures defaults are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = constants.DefaultMaxIterations
	}
	if o.Epsilon <= 0 {
		o.Epsilon = constants.DefaultEpsilon
	}
	if o.StepSize <= 0 {
		o.StepSize = constants.DefaultStepSize
	}
	if o.MarginalFloor <= 0 {
		o.MarginalFloor = constants.DefaultMarginalFloor
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	if o.StepSize > 1 {
		return fmt.Errorf("optimizer step size %.4f must not exceed 1", o.StepSize)
	}
	if o.Epsilon >= 1 {
		return fmt.Errorf("optimizer epsilon %.4f must be less than 1", o.Epsilon)
	}
	return nil
}

// SolverConfig tunes the constrained nonlinear solver.
type SolverConfig struct {
	Algorithm           string  `yaml:"algorithm,omitempty" mapstructure:"algorithm"`
	XTolRel             float64 `yaml:"xtolRel,omitempty" mapstructure:"xtolRel"`
	FTolRel             float64 `yaml:"ftolRel,omitempty" mapstructure:"ftolRel"`
	MaxEvaluations      int     `yaml:"maxEvaluations,omitempty" mapstructure:"maxEvaluations"`
	ConstraintTolerance float64 `yaml:"constraintTolerance,omitempty" mapstructure:"constraintTolerance"`
	ScaleFactor         float64 `yaml:"scaleFactor,omitempty" mapstructure:"scaleFactor"`
}

// CanonicalAlgorithm returns the canonical identifier for a solver algorithm.
func CanonicalAlgorithm(value string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultAlgorithm
	}
	return trimmed
}

// Normalize ensures defaults and canonical values are applied before validation.
func (s *SolverConfig) Normalize() {
	if s == nil {
		return
	}
	s.Algorithm = CanonicalAlgorithm(s.Algorithm)
	if s.XTolRel <= 0 {
		s.XTolRel = constants.DefaultXTolRel
	}
	if s.FTolRel <= 0 {
		s.FTolRel = constants.DefaultFTolRel
	}
	if s.MaxEvaluations <= 0 {
		s.MaxEvaluations = constants.DefaultMaxEvaluations
	}
	if s.ConstraintTolerance <= 0 {
		s.ConstraintTolerance = constants.DefaultConstraintTolerance
	}
	if s.ScaleFactor <= 0 {
		s.ScaleFactor = constants.DefaultScaleFactor
	}
}

// Validate returns an error when the solver configuration is unsupported.
func (s *SolverConfig) Validate() error {
	if s == nil {
		return fmt.Errorf("solver configuration cannot be nil")
	}

	s.Normalize()

	if s.XTolRel >= 1 || s.FTolRel >= 1 {
		return fmt.Errorf("solver relative tolerances must be less than 1 (xtol %.2g, ftol %.2g)", s.XTolRel, s.FTolRel)
	}
	return nil
}
