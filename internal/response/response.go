package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"placehub/internal/services"
)

// Config holds configuration for the response system
type Config struct {
	PrettyJSON bool
	// MaskInternalErrors replaces 5xx messages with a generic one.
	MaskInternalErrors bool
}

// DefaultConfig returns production-ready response configuration
func DefaultConfig() *Config {
	return &Config{
		PrettyJSON:         false,
		MaskInternalErrors: true,
	}
}

// APIResponse represents a standardized API response
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// ErrorDetail represents error information in API responses
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Builder writes JSON envelopes.
type Builder struct {
	config *Config
	logger *zap.Logger
}

// NewBuilder creates a new response builder
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{config: config, logger: logger}
}

// WriteJSON writes a JSON response with appropriate headers
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, resp *APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if b.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(resp); err != nil {
		// Headers are already sent.
		b.logger.Error("Failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", requestID(r.Context())),
		)
	}
}

// WriteSuccess writes a 200 with data.
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID(r.Context()),
		Timestamp: time.Now().Unix(),
	}, http.StatusOK)
}

// WriteNoContent writes a bare 204.
func (b *Builder) WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError maps err to its status code and writes an error envelope.
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := services.GetServiceError(err)
	status := serviceErr.GetStatusCode()

	detail := &ErrorDetail{
		Type:    serviceErr.Type,
		Message: serviceErr.Message,
		Details: serviceErr.Details,
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		b.logger.Error("Request failed", fields...)
		if b.config.MaskInternalErrors {
			detail.Message = "An internal error occurred"
			detail.Details = nil
		}
	} else {
		b.logger.Debug("Request rejected", fields...)
	}

	b.WriteJSON(w, r, &APIResponse{
		Success:   false,
		Error:     detail,
		RequestID: requestID(r.Context()),
		Timestamp: time.Now().Unix(),
	}, status)
}

func requestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}
