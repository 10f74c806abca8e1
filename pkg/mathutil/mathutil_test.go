package mathutil

import "testing"

func TestSafeDivideAndPercentage(t *testing.T) {
	if got := SafeDivide(10, 0); got != 0 {
		t.Errorf("SafeDivide(10, 0) = %v, expected 0", got)
	}
	if got := SafeDivide(10, 4); got != 2.5 {
		t.Errorf("SafeDivide(10, 4) = %v, expected 2.5", got)
	}
	if got := CalculatePercentage(25, 200); got != 12.5 {
		t.Errorf("CalculatePercentage(25, 200) = %v, expected 12.5", got)
	}
	if got := CalculatePercentage(25, 0); got != 0 {
		t.Errorf("CalculatePercentage(25, 0) = %v, expected 0", got)
	}
}

func TestPercentChange(t *testing.T) {
	if got := PercentChange(200, 300); got != 50 {
		t.Errorf("PercentChange(200, 300) = %v, expected 50", got)
	}
	// baseline below one is floored
	if got := PercentChange(0, 2); got != 200 {
		t.Errorf("PercentChange(0, 2) = %v, expected 200", got)
	}
}

func TestWithinRelativeTolerance(t *testing.T) {
	if !WithinRelativeTolerance(500000, 500000.0004, 1e-6) {
		t.Error("expected values to agree within 1e-6 relative")
	}
	if WithinRelativeTolerance(500000, 500010, 1e-6) {
		t.Error("expected values to differ beyond 1e-6 relative")
	}
	if !WithinRelativeTolerance(0.2, 0.2000005, 1e-6) {
		t.Error("expected values below one to compare absolutely")
	}
}
