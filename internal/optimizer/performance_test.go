package optimizer

import (
	"fmt"
	"testing"
	"time"

	"github.com/iwvelando/mix-optimizer/internal/config"
	"github.com/iwvelando/mix-optimizer/internal/curve"
	"github.com/iwvelando/mix-optimizer/internal/media"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"go.uber.org/zap"
)

func largeRequest(n int) Request {
	curves := make([]media.Curve, n)
	current := make(media.Allocation, n)
	for i := range curves {
		id := fmt.Sprintf("channel-%02d", i)
		curves[i] = media.Curve{
			ID: id,
			Hill: curve.Hill{
				K:           float64(20000 + 5000*(i%7)),
				S:           1 + float64(i%4)*0.4,
				MaxResponse: float64(200000 + 50000*(i%5)),
			},
		}
		current[id] = float64(10000 + 1000*(i%9))
	}
	return Request{Curves: curves, Current: current, TotalBudget: current.Total()}
}

// TestPerformance tests performance characteristics
func TestPerformance(t *testing.T) {
	if !testing.Verbose() {
		t.Skip("Skipping performance test. Run with -v to enable.")
	}

	runner := newTestRunner(t)
	req := largeRequest(50)

	start := time.Now()
	result, err := runner.Optimize(req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	elapsed := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Channels: %d", len(req.Curves))
	t.Logf("  Iterations: %d (converged: %t)", result.Summary.Iterations, result.Summary.Converged)
	t.Logf("  Optimize: %v", elapsed)

	if elapsed > 2*time.Second {
		t.Errorf("Optimize time %v exceeds 2 second threshold", elapsed)
	}
	if result.Summary.Iterations > constants.DefaultMaxIterations {
		t.Errorf("Iterations %d exceed the cap", result.Summary.Iterations)
	}
}

func BenchmarkOptimize(b *testing.B) {
	runner, err := NewRunner(zap.NewNop(), config.OptimizerConfig{})
	if err != nil {
		b.Fatalf("failed to create optimizer runner: %v", err)
	}
	req := largeRequest(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := runner.Optimize(req); err != nil {
			b.Fatalf("Optimize failed: %v", err)
		}
	}
}
