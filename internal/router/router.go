package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"placehub/internal/handlers/api/v1/badges"
	"placehub/internal/middleware"
	"placehub/internal/monitoring"
	"placehub/internal/response"
	"placehub/internal/services"
)

// HealthReporter produces the /health report.
type HealthReporter interface {
	Check(ctx context.Context) *monitoring.SystemHealth
}

// Dependencies are the collaborators the router mounts.
type Dependencies struct {
	Badges          services.BadgeService
	Health          HealthReporter
	Gatherer        prometheus.Gatherer
	HTTPMetrics     *middleware.HTTPMetrics
	ResponseBuilder *response.Builder
	Logging         *middleware.LoggingConfig
	RequestTimeout  time.Duration
	Logger          *zap.Logger
}

// SetupRouter configures all HTTP routes and returns the main handler
func SetupRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rb := deps.ResponseBuilder
	if rb == nil {
		rb = response.NewBuilder(nil, logger)
	}

	r := chi.NewRouter()

	// Request id first so every later layer can correlate on it.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}
	r.Use(middleware.RequestLogger(logger.Named("http"), deps.Logging))
	r.Use(middleware.RecoverPanic(logger))
	if deps.RequestTimeout > 0 {
		r.Use(chimw.Timeout(deps.RequestTimeout))
	}

	r.Get("/health", healthHandler(deps.Health, rb))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if deps.Badges != nil {
		badges.NewBadgeController(deps.Badges, logger.Named("api"), rb).RegisterRoutes(r)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		rb.WriteError(w, req, services.NewNotFoundError("route not found"))
	})

	logger.Info("Router configured",
		zap.Bool("metrics_endpoint", deps.Gatherer != nil),
		zap.Duration("request_timeout", deps.RequestTimeout),
	)

	return r
}

func healthHandler(health HealthReporter, rb *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			rb.WriteSuccess(w, r, map[string]string{"status": monitoring.StatusHealthy})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report := health.Check(ctx)
		status := http.StatusOK
		if report.Status == monitoring.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		rb.WriteJSON(w, r, &response.APIResponse{
			Success:   status == http.StatusOK,
			Data:      report,
			RequestID: chimw.GetReqID(r.Context()),
			Timestamp: time.Now().Unix(),
		}, status)
	}
}
