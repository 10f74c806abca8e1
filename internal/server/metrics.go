package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts API requests.
	// Labels: endpoint, status (HTTP status code)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mix_optimizer",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// requestDuration measures end-to-end handling time.
	// Labels: endpoint
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mix_optimizer",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "API request handling time in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"endpoint"})

	// solverRuns counts constrained solver runs by the strategy that answered.
	// Labels: solver, degraded
	solverRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mix_optimizer",
		Subsystem: "solver",
		Name:      "runs_total",
		Help:      "Constrained solver runs by answering strategy",
	}, []string{"solver", "degraded"})

	// optimizerIterations tracks how many passes the equalization loop needed.
	optimizerIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mix_optimizer",
		Subsystem: "optimizer",
		Name:      "iterations",
		Help:      "Equalization passes per optimization",
		Buckets:   []float64{1, 5, 10, 20, 40, 60, 80, 100},
	})

	// optimizerUnconverged counts optimizations that stopped without
	// equalizing marginal returns or placing the full budget.
	optimizerUnconverged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mix_optimizer",
		Subsystem: "optimizer",
		Name:      "unconverged_total",
		Help:      "Optimizations reported as not converged",
	})
)
