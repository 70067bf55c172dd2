// Package http serves the JSON API: chart computation, transaction browsing,
// assignment rules and rebuild triggers.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/CohortInsights/financials/internal/chart"
	"github.com/CohortInsights/financials/internal/core"
	"github.com/CohortInsights/financials/internal/log"
	"github.com/CohortInsights/financials/internal/rules"
	"github.com/CohortInsights/financials/internal/services"
	"github.com/CohortInsights/financials/internal/storage"
)

// ChartProvider computes chart results and eligibility. *services.ChartService
// satisfies it.
type ChartProvider interface {
	ChartData(ctx context.Context, req services.ChartRequest) (*chart.Result, error)
	Eligibility(ctx context.Context, req services.ChartRequest) ([]chart.Eligibility, error)
	Types() []services.TypeInfo
	Years(ctx context.Context) ([]int, error)
}

// TransactionProvider serves transactions and assignment rules.
// *services.TransactionService satisfies it.
type TransactionProvider interface {
	List(ctx context.Context, f storage.TransactionFilter) ([]storage.StoredTransaction, error)
	Get(ctx context.Context, id int64) (storage.StoredTransaction, error)
	AssignCategory(ctx context.Context, id int64, category core.Category) error
	ListRules(ctx context.Context) ([]rules.Rule, error)
	SaveRule(ctx context.Context, rule rules.Rule) (int64, error)
	DeleteRule(ctx context.Context, id int64) error
	RequestRebuild(ctx context.Context, reason string) error
}

// Pinger reports whether a dependency is reachable, for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	charts       ChartProvider
	transactions TransactionProvider
	readiness    Pinger
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, charts ChartProvider, transactions TransactionProvider, readiness Pinger, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		charts:       charts,
		transactions: transactions,
		readiness:    readiness,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		logger:       logger.WithComponent("http"),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/charts/types", s.withMiddleware(s.handleChartTypes))
	mux.HandleFunc("GET /api/charts/eligibility", s.withMiddleware(s.handleChartEligibility))
	mux.HandleFunc("GET /api/charts/data", s.withMiddleware(s.handleChartData))
	mux.HandleFunc("GET /api/years", s.withMiddleware(s.handleYears))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("POST /api/transactions/{id}/category", s.withMiddleware(s.handleAssignCategory))

	mux.HandleFunc("GET /api/rules", s.withMiddleware(s.handleListRules))
	mux.HandleFunc("POST /api/rules", s.withMiddleware(s.handleSaveRule))
	mux.HandleFunc("DELETE /api/rules/{id}", s.withMiddleware(s.handleDeleteRule))

	mux.HandleFunc("POST /api/rebuild", s.withMiddleware(s.handleRebuild))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting for mutations, and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "suspicious request",
				"request_id", requestID,
				"method", r.Method,
				"url", r.URL.Path,
				"client_ip", clientIP)
		}

		// Mutations are rate limited per client; reads are cached downstream
		// and left alone.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.readiness != nil {
		if err := s.readiness.Ping(ctx); err != nil {
			s.logger.ErrorContext(ctx, "readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
