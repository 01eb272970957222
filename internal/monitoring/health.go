package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"placehub/internal/cache"
	"placehub/internal/database"
	"placehub/internal/events"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// SystemHealth is the body of the health endpoint.
type SystemHealth struct {
	Status      string                     `json:"status"`
	Timestamp   time.Time                  `json:"timestamp"`
	Uptime      string                     `json:"uptime"`
	Version     string                     `json:"version"`
	Environment string                     `json:"environment"`
	Components  map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a system component
type ComponentHealth struct {
	Status       string                 `json:"status"`
	ResponseTime time.Duration          `json:"response_time"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// DatabaseProbe is satisfied by repositories.Collection.
type DatabaseProbe interface {
	HealthCheck(ctx context.Context) *database.HealthStatus
}

// HealthChecker aggregates component probes. Any nil component is skipped.
type HealthChecker struct {
	db          DatabaseProbe
	cache       cache.Cache
	bus         events.EventBus
	logger      *zap.Logger
	startTime   time.Time
	version     string
	environment string
}

func NewHealthChecker(db DatabaseProbe, c cache.Cache, bus events.EventBus, logger *zap.Logger, version, environment string) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{
		db:          db,
		cache:       c,
		bus:         bus,
		logger:      logger,
		startTime:   time.Now(),
		version:     version,
		environment: environment,
	}
}

// Check probes every component and derives the overall status. The database
// is the only component whose failure makes the service unhealthy.
func (h *HealthChecker) Check(ctx context.Context) *SystemHealth {
	start := time.Now()
	report := &SystemHealth{
		Timestamp:   start,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Version:     h.version,
		Environment: h.environment,
		Components:  make(map[string]ComponentHealth),
	}

	if h.db != nil {
		report.Components["database"] = h.checkDatabase(ctx)
	}
	if h.cache != nil {
		report.Components["cache"] = h.checkCache(ctx)
	}
	if h.bus != nil {
		report.Components["event_bus"] = h.checkEventBus()
	}

	report.Status = overallStatus(report.Components)

	if report.Status != StatusHealthy {
		h.logger.Warn("Health check reported problems",
			zap.String("status", report.Status),
			zap.Duration("check_duration", time.Since(start)),
		)
	}
	return report
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	status := h.db.HealthCheck(ctx)
	return ComponentHealth{
		Status:       status.Status,
		ResponseTime: status.ResponseTime,
		Error:        status.Error,
		Details: map[string]interface{}{
			"open_connections": status.OpenConnections,
			"in_use":           status.InUse,
			"idle":             status.Idle,
			"wait_count":       status.WaitCount,
		},
	}
}

// A failing cache only degrades the service; lookups fall through to the
// database.
func (h *HealthChecker) checkCache(ctx context.Context) ComponentHealth {
	start := time.Now()
	component := ComponentHealth{Status: StatusHealthy}

	if err := h.cache.Health(ctx); err != nil {
		component.Status = StatusDegraded
		component.Error = err.Error()
	}
	component.ResponseTime = time.Since(start)

	stats := h.cache.Stats()
	component.Details = map[string]interface{}{
		"hits":   stats.Hits,
		"misses": stats.Misses,
		"keys":   stats.Keys,
	}
	return component
}

func (h *HealthChecker) checkEventBus() ComponentHealth {
	component := ComponentHealth{Status: StatusHealthy}
	if err := h.bus.Health(); err != nil {
		component.Status = StatusDegraded
		component.Error = err.Error()
	}

	stats := h.bus.Stats()
	component.Details = map[string]interface{}{
		"published":   stats.EventsPublished,
		"processed":   stats.EventsProcessed,
		"failed":      stats.EventsFailed,
		"queue_depth": stats.QueueDepth,
	}
	return component
}

func overallStatus(components map[string]ComponentHealth) string {
	if db, ok := components["database"]; ok && db.Status == StatusUnhealthy {
		return StatusUnhealthy
	}
	for _, c := range components {
		if c.Status != StatusHealthy {
			return StatusDegraded
		}
	}
	return StatusHealthy
}
