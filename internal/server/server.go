// Package server exposes the allocation engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iwvelando/mix-optimizer/internal/config"
	"github.com/iwvelando/mix-optimizer/internal/curve"
	"github.com/iwvelando/mix-optimizer/internal/feasible"
	"github.com/iwvelando/mix-optimizer/internal/media"
	"github.com/iwvelando/mix-optimizer/internal/optimizer"
	"github.com/iwvelando/mix-optimizer/internal/request"
	"github.com/iwvelando/mix-optimizer/internal/simulate"
	"github.com/iwvelando/mix-optimizer/internal/solver"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

type contextKey struct{}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	runner        *optimizer.Runner
	solver        *solver.Solver
}

// NewHandler constructs the HTTP handler serving the optimization API and
// Prometheus metrics. Engine settings come from conf; a nil conf uses the
// defaults.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, conf *config.Configuration) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if conf == nil {
		conf = config.Default()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	runner, err := optimizer.NewRunner(logger, conf.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize optimizer: %w", err)
	}
	s, err := solver.New(logger, conf.Solver)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize solver: %w", err)
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		runner:        runner,
		solver:        s,
	}

	router := mux.NewRouter()
	router.Use(h.withRequestID, h.withMetrics)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/optimize", h.handleOptimize).Methods(http.MethodPost)
	api.HandleFunc("/optimize/constrained", h.handleConstrained).Methods(http.MethodPost)
	api.HandleFunc("/simulate", h.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/simulate/batch", h.handleSimulateBatch).Methods(http.MethodPost)
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)
	api.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router, nil
}

// Run serves handler on cfg.Address until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, logger *zap.Logger, cfg *Config, handler http.Handler) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Timeout(),
		ReadTimeout:       cfg.Timeout(),
		WriteTimeout:      cfg.Timeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "server.Run"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()
	logger.Info("server shutting down", zap.String("op", "server.Run"))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

type response struct {
	RequestID string `json:"request_id"`
	Duration  string `json:"duration"`
	Result    any    `json:"result"`
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	start := time.Now()

	var req request.OptimizeRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	result, err := h.runner.Optimize(req.Build())
	if err != nil {
		h.respondEngineError(w, r, err, op)
		return
	}

	optimizerIterations.Observe(float64(result.Summary.Iterations))
	if !result.Summary.Converged {
		optimizerUnconverged.Inc()
	}
	h.respond(w, r, start, result)
}

func (h *handler) handleConstrained(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConstrained"
	start := time.Now()

	var req request.ConstrainedRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	campaigns, err := req.CampaignList()
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	result, err := h.solver.Optimize(campaigns, req.TotalBudget, req.Algorithm)
	if err != nil {
		h.respondEngineError(w, r, err, op)
		return
	}

	solverRuns.WithLabelValues(result.Solver, strconv.FormatBool(result.Degraded)).Inc()
	h.respond(w, r, start, result)
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	start := time.Now()

	var req request.SimulateRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	curves, allocation, cpms, err := req.Inputs()
	if err != nil {
		h.respondEngineError(w, r, err, op)
		return
	}
	h.respond(w, r, start, simulate.Evaluate(curves, allocation, cpms))
}

func (h *handler) handleSimulateBatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulateBatch"
	start := time.Now()

	var req request.BatchRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	curves, scenarios, cpms, err := req.Inputs()
	if err != nil {
		h.respondEngineError(w, r, err, op)
		return
	}

	results, err := simulate.EvaluateScenarios(r.Context(), curves, scenarios, cpms)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, err.Error(), op)
		return
	}
	h.respond(w, r, start, results)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// decode reads and validates the body into v, answering the request itself
// when that fails.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	format := request.FormatJSON
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "yaml") {
		format = request.FormatYAML
	}

	if err := request.Decode(r.Body, format, v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return false
	}
	return true
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, start time.Time, result any) {
	h.writeJSON(w, http.StatusOK, response{
		RequestID: requestID(r),
		Duration:  time.Since(start).String(),
		Result:    result,
	})
}

// respondEngineError maps configuration errors to 422 and anything else to 400.
func (h *handler) respondEngineError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := http.StatusBadRequest
	if errors.Is(err, curve.ErrInvalidCurve) || errors.Is(err, media.ErrInvalidConstraint) || errors.Is(err, feasible.ErrInfeasible) {
		status = http.StatusUnprocessableEntity
	}
	h.respondErrorWithOp(w, r, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("requestId", requestID(r)),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg, "request_id": requestID(r)})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

// withRequestID propagates or assigns the request id.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// withMetrics records request counts and durations by route template.
func (h *handler) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		h.logger.Debug("request served",
			zap.String("op", "server.withMetrics"),
			zap.String("requestId", requestID(r)),
			zap.String("endpoint", endpoint),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
