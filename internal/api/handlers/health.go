// Package handlers provides HTTP request handlers for the railwatch API.
package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"railwatch/internal/api/response"
	"railwatch/internal/archive"
	"railwatch/internal/config"
)

// HealthHandler provides health check functionality
type HealthHandler struct {
	config    *config.Config
	runs      *archive.Store
	startTime time.Time
}

// HealthStatus represents the health check response structure
type HealthStatus struct {
	Status    string           `json:"status"`
	Server    string           `json:"server"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	System    SystemInfo       `json:"system"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo represents system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemoryMB     uint64 `json:"memory_mb"`
}

// NewHealthHandler creates a new health check handler. The run archive
// is optional; a nil store skips the database check.
func NewHealthHandler(cfg *config.Config, runs *archive.Store) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		runs:      runs,
		startTime: time.Now(),
	}
}

// Handle processes health check requests
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := h.buildHealthStatus(ctx)
	status.Status = h.determineOverallStatus(status.Checks)

	statusCode := http.StatusOK
	if status.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	response.WriteSuccessStatus(w, statusCode, status)
}

// HandleReadiness reports whether the server can serve traffic: the
// archive database must answer and at least one station file must
// exist.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.runs != nil {
		if err := h.runs.Ping(ctx); err != nil {
			response.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "run archive unreachable",
			})
			return
		}
	}

	if !fileExists(h.config.Data.CoordStationsCSV) && !fileExists(h.config.Data.StationsCSV) {
		response.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "no station data files found",
		})
		return
	}

	response.WriteSuccess(w, map[string]string{"status": "ready"})
}

// HandleLiveness reports process liveness
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]string{
		"status": "alive",
		"uptime": h.getUptime(),
	})
}

// buildHealthStatus constructs the complete health status
func (h *HealthHandler) buildHealthStatus(ctx context.Context) HealthStatus {
	return HealthStatus{
		Server:    "railwatch",
		Version:   "1.0.0",
		Uptime:    h.getUptime(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    h.performHealthChecks(ctx),
		System:    h.getSystemInfo(),
	}
}

// getUptime calculates server uptime
func (h *HealthHandler) getUptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

// performHealthChecks runs the individual checks
func (h *HealthHandler) performHealthChecks(ctx context.Context) map[string]Check {
	checks := make(map[string]Check)

	checks["archive"] = h.checkArchive(ctx)
	checks["network_data"] = h.checkNetworkData()
	checks["config"] = h.checkConfiguration()
	checks["memory"] = h.checkMemory()

	return checks
}

// checkArchive pings the run archive database
func (h *HealthHandler) checkArchive(ctx context.Context) Check {
	if h.runs == nil {
		return Check{
			Status:  "healthy",
			Message: "Run archive disabled",
		}
	}

	start := time.Now()
	if err := h.runs.Ping(ctx); err != nil {
		return Check{
			Status:  "unhealthy",
			Message: "Run archive unreachable: " + err.Error(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Run archive reachable",
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}
}

// checkNetworkData verifies the configured CSV exports are present
func (h *HealthHandler) checkNetworkData() Check {
	if fileExists(h.config.Data.CoordStationsCSV) || fileExists(h.config.Data.StationsCSV) {
		return Check{
			Status:  "healthy",
			Message: "Station data present",
		}
	}

	return Check{
		Status:  "warning",
		Message: "No station data files found; simulation endpoints will fail",
	}
}

// checkMemory performs memory usage health check
func (h *HealthHandler) checkMemory() Check {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	if m.Alloc/1024/1024 > 500 {
		return Check{
			Status:  "warning",
			Message: "High memory usage",
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Memory usage normal",
	}
}

// checkConfiguration validates configuration health
func (h *HealthHandler) checkConfiguration() Check {
	if err := h.config.Validate(); err != nil {
		return Check{
			Status:  "warning",
			Message: "Configuration validation warning: " + err.Error(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Configuration valid",
	}
}

// getSystemInfo collects system information
func (h *HealthHandler) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemoryMB:     m.Alloc / 1024 / 1024,
	}
}

// determineOverallStatus folds individual checks into one status
func (h *HealthHandler) determineOverallStatus(checks map[string]Check) string {
	hasUnhealthy := false
	hasWarning := false

	for _, check := range checks {
		switch check.Status {
		case "unhealthy":
			hasUnhealthy = true
		case "warning":
			hasWarning = true
		}
	}

	if hasUnhealthy {
		return "unhealthy"
	}
	if hasWarning {
		return "warning"
	}
	return "healthy"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
