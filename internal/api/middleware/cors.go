package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig represents CORS configuration options
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORSMiddleware provides Cross-Origin Resource Sharing support for
// the dashboard origins.
type CORSMiddleware struct {
	config CORSConfig
}

// NewCORSMiddleware creates a new CORS middleware with configuration
func NewCORSMiddleware(config *CORSConfig) *CORSMiddleware {
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:8080",
			"http://127.0.0.1:8080",
		}
	}

	if len(config.AllowedMethods) == 0 {
		config.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}

	if len(config.AllowedHeaders) == 0 {
		config.AllowedHeaders = []string{
			"Accept",
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"X-Request-ID",
			"X-Session-ID",
		}
	}

	if len(config.ExposedHeaders) == 0 {
		config.ExposedHeaders = []string{"X-Request-ID"}
	}

	if config.MaxAge == 0 {
		config.MaxAge = 86400 // 24 hours
	}

	return &CORSMiddleware{config: *config}
}

// Handler returns the CORS middleware handler
func (c *CORSMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Set CORS headers if origin is allowed or if no origin (same-origin requests)
			if origin == "" || c.isOriginAllowed(origin) {
				c.setCORSHeaders(w, origin)
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				c.handlePreflight(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed checks if the origin is in the allowed list
func (c *CORSMiddleware) isOriginAllowed(origin string) bool {
	for _, allowedOrigin := range c.config.AllowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
		if c.matchesWildcard(allowedOrigin, origin) {
			return true
		}
	}
	return false
}

// matchesWildcard checks if origin matches a wildcard pattern like
// *.example.com
func (c *CORSMiddleware) matchesWildcard(pattern, origin string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	return strings.HasSuffix(origin, pattern[2:])
}

// setCORSHeaders sets the appropriate CORS headers
func (c *CORSMiddleware) setCORSHeaders(w http.ResponseWriter, origin string) {
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else if len(c.config.AllowedOrigins) == 1 && c.config.AllowedOrigins[0] == "*" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}

	if c.config.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	if len(c.config.ExposedHeaders) > 0 {
		w.Header().Set("Access-Control-Expose-Headers", strings.Join(c.config.ExposedHeaders, ", "))
	}
}

// handlePreflight handles CORS preflight OPTIONS requests
func (c *CORSMiddleware) handlePreflight(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	if origin == "" || !c.isOriginAllowed(origin) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	c.setCORSHeaders(w, origin)

	w.Header().Set("Access-Control-Allow-Methods", strings.Join(c.config.AllowedMethods, ", "))

	requestedHeaders := r.Header.Get("Access-Control-Request-Headers")
	if requestedHeaders != "" && c.areHeadersAllowed(requestedHeaders) {
		w.Header().Set("Access-Control-Allow-Headers", requestedHeaders)
	} else {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(c.config.AllowedHeaders, ", "))
	}

	w.Header().Set("Access-Control-Max-Age", strconv.Itoa(c.config.MaxAge))

	w.WriteHeader(http.StatusOK)
}

// areHeadersAllowed checks if all requested headers are in the allowed list
func (c *CORSMiddleware) areHeadersAllowed(requestedHeaders string) bool {
	allowedMap := make(map[string]bool, len(c.config.AllowedHeaders))
	for _, header := range c.config.AllowedHeaders {
		allowedMap[strings.ToLower(strings.TrimSpace(header))] = true
	}

	for _, header := range strings.Split(requestedHeaders, ",") {
		if !allowedMap[strings.ToLower(strings.TrimSpace(header))] {
			return false
		}
	}
	return true
}
