package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"railwatch/internal/logging"
)

// contextKey is the private type for request-scoped values.
type contextKey string

// RequestIDKey is the context key for the request ID
const RequestIDKey contextKey = "request_id"

// LoggingMiddleware provides request/response logging
type LoggingMiddleware struct {
	logger logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware() *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logging.ForComponent("http"),
	}
}

// Handler returns the logging middleware handler. The websocket feed
// is passed through unwrapped: the upgrade needs to hijack the
// connection, which the capturing writer cannot offer.
func (lm *LoggingMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/ws") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Request-ID", requestID)

			wrapper := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapper, r)

			lm.logResponse(r, wrapper.statusCode, time.Since(start), requestID)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// logResponse logs one completed request
func (lm *LoggingMiddleware) logResponse(r *http.Request, statusCode int, duration time.Duration, requestID string) {
	// Health probes fire constantly; logging them is just noise
	if isHealthPath(r.URL.Path) {
		return
	}

	fields := []interface{}{
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", statusCode,
		"duration_ms", duration.Milliseconds(),
		"remote", r.RemoteAddr,
	}

	switch {
	case statusCode >= 500:
		lm.logger.Error("Request failed", fields...)
	case statusCode >= 400:
		lm.logger.Warn("Request rejected", fields...)
	default:
		lm.logger.Info("Request completed", fields...)
	}

	if duration > time.Second {
		lm.logger.Warn("Slow request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", duration.Milliseconds())
	}
}

func isHealthPath(path string) bool {
	switch path {
	case "/health", "/readiness", "/liveness", "/ping",
		"/api/v1/health", "/api/v1/readiness", "/api/v1/liveness":
		return true
	}
	return false
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
