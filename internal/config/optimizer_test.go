package config

import "testing"

func TestCanonicalAlgorithm(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty defaults to SLSQP", input: "", expected: AlgorithmSLSQP},
		{name: "lower case", input: "slsqp", expected: AlgorithmSLSQP},
		{name: "padded", input: "  mma ", expected: AlgorithmMMA},
		{name: "unknown upper cased", input: "Custom", expected: "CUSTOM"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := CanonicalAlgorithm(tc.input)
			if actual != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, actual)
			}
		})
	}
}

func TestOptimizerConfigNormalize(t *testing.T) {
	cfg := &OptimizerConfig{}
	cfg.Normalize()
	if cfg.MaxIterations != 100 || cfg.Epsilon != 0.01 || cfg.StepSize != 0.05 || cfg.MarginalFloor != 0.01 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	custom := &OptimizerConfig{MaxIterations: 10, StepSize: 0.2}
	if err := custom.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if custom.MaxIterations != 10 || custom.StepSize != 0.2 {
		t.Fatalf("expected overrides kept, got %+v", custom)
	}
}

func TestOptimizerConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     *OptimizerConfig
		wantErr bool
	}{
		{name: "nil", cfg: nil, wantErr: true},
		{name: "defaults", cfg: &OptimizerConfig{}, wantErr: false},
		{name: "step above one", cfg: &OptimizerConfig{StepSize: 2}, wantErr: true},
		{name: "epsilon of one", cfg: &OptimizerConfig{Epsilon: 1}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSolverConfigValidate(t *testing.T) {
	var nilCfg *SolverConfig
	if err := nilCfg.Validate(); err == nil {
		t.Fatal("expected error for nil solver config")
	}

	cfg := &SolverConfig{Algorithm: "auglag"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Algorithm != AlgorithmAUGLAG || cfg.MaxEvaluations != 1000 || cfg.XTolRel != 1e-6 {
		t.Fatalf("unexpected normalized solver config %+v", cfg)
	}

	bad := &SolverConfig{FTolRel: 2}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for relative tolerance above 1")
	}
}
