package database

import (
	"context"
	"time"
)

// HealthStatus is the result of a single health probe.
type HealthStatus struct {
	Status          string        `json:"status"`
	ResponseTime    time.Duration `json:"response_time"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"wait_count"`
	Error           string        `json:"error,omitempty"`
}

// Health pings the database and reports pool usage. The pool is reported
// degraded when every open connection is busy.
func (m *Manager) Health(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := m.db.PingContext(ctx)
	stats := m.db.Stats()

	status := &HealthStatus{
		Status:          "healthy",
		ResponseTime:    time.Since(start),
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
	}

	switch {
	case err != nil:
		status.Status = "unhealthy"
		status.Error = err.Error()
	case stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections:
		status.Status = "degraded"
	}
	return status
}

func (h *HealthStatus) IsHealthy() bool {
	return h.Status != "unhealthy"
}
