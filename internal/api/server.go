// Package api serves the Mini App JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sparks/internal/logger"
	"sparks/internal/metrics"
	"sparks/internal/service"
)

// Services groups the core operations the API exposes.
type Services struct {
	Users        *service.UserService
	Tasks        *service.TaskService
	Entitlements *service.EntitlementService
	Bonus        *service.BonusService
	Categories   *service.CategoryService
	Ledger       *service.CurrencyLedger
}

// Server is the Sparks HTTP API server.
type Server struct {
	svc            Services
	prefix         string
	metricsEnabled bool
	log            *zap.Logger
}

// NewServer creates a new API server mounting routes under prefix.
func NewServer(svc Services, prefix string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &Server{svc: svc, prefix: prefix, log: log.Named("api")}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route(s.prefix, func(r chi.Router) {
		r.Use(s.identify)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Get("/daily-free-count", s.handleDailyFreeCount)
			r.Post("/purchase-extra", s.handlePurchaseExtra)
			r.Get("/{taskID}", s.handleGetTask)
			r.Post("/{taskID}/complete", s.handleCompleteTask)
		})

		r.Route("/daily-bonus", func(r chi.Router) {
			r.Get("/status", s.handleBonusStatus)
			r.Post("/claim", s.handleBonusClaim)
		})

		r.Get("/categories", s.handleCategories)
		r.Get("/balance", s.handleBalance)
		r.Get("/transactions", s.handleTransactions)
	})

	return r
}

// requestLogger logs one line per request and counts it by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		logger.WithRequestID(r.Context(), s.log).Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// corsMiddleware lets the Mini App frontend call the API from its own origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Telegram-User-ID, X-Wallet-Address")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
