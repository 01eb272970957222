// file: internal/middleware/logging.go
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// LoggingConfig holds configuration for the request logger
type LoggingConfig struct {
	SlowRequestThreshold time.Duration
	// SkipPaths are not logged on success (probes, scrapes).
	SkipPaths []string
}

// DefaultLoggingConfig returns production-ready logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SlowRequestThreshold: 2 * time.Second,
		SkipPaths:            []string{"/health", "/metrics"},
	}
}

// RequestLogger logs one structured line per completed request, correlated
// by the chi request id.
func RequestLogger(logger *zap.Logger, config *LoggingConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if _, ok := skip[r.URL.Path]; ok && status < http.StatusBadRequest {
				return
			}

			duration := time.Since(start)
			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", routePattern(r)),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.Int("response_size", ww.BytesWritten()),
				zap.String("remote_addr", r.RemoteAddr),
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("HTTP request completed with error", fields...)
			case duration > config.SlowRequestThreshold:
				logger.Warn("Slow request detected", append(fields, zap.Duration("threshold", config.SlowRequestThreshold))...)
			default:
				logger.Info("HTTP request completed", fields...)
			}
		})
	}
}

// RecoverPanic turns a handler panic into a 500 and logs it.
func RecoverPanic(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Panic recovered",
						zap.Any("panic", rec),
						zap.String("request_id", middleware.GetReqID(r.Context())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
