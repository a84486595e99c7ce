// Package api provides the HTTP API layer for the railwatch server.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"railwatch/internal/analysis"
	"railwatch/internal/api/handlers"
	"railwatch/internal/api/middleware"
	"railwatch/internal/api/response"
	"railwatch/internal/archive"
	"railwatch/internal/config"
	"railwatch/internal/session"
	"railwatch/internal/websocket"
)

// Router represents the main API router
type Router struct {
	config   *config.Config
	mux      *chi.Mux
	version  string
	sessions *session.Manager
	analyzer *analysis.Analyzer
	hub      *websocket.Hub
	runs     *archive.Store
}

// NewRouter creates a new API router with middleware and routes. The
// hub and run archive are optional; nil disables the feed endpoint and
// the runs endpoint respectively.
func NewRouter(cfg *config.Config, sessions *session.Manager, analyzer *analysis.Analyzer, hub *websocket.Hub, runs *archive.Store) *Router {
	r := &Router{
		config:   cfg,
		mux:      chi.NewRouter(),
		version:  "1.0.0",
		sessions: sessions,
		analyzer: analyzer,
		hub:      hub,
		runs:     runs,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Handler returns the HTTP handler
func (r *Router) Handler() http.Handler {
	return r.mux
}

// setupMiddleware configures the middleware stack
func (r *Router) setupMiddleware() {
	// Recovery middleware (should be first)
	r.mux.Use(chimiddleware.Recoverer)

	// Request timeout middleware - exclude the websocket feed
	r.mux.Use(r.timeoutMiddleware())

	// Logging middleware
	loggingMiddleware := middleware.NewLoggingMiddleware()
	r.mux.Use(loggingMiddleware.Handler())

	// CORS middleware for the dashboard origins
	corsMiddleware := middleware.NewCORSMiddleware(&middleware.CORSConfig{
		AllowedOrigins:   r.config.Server.CORSOrigins,
		AllowCredentials: true,
	})
	r.mux.Use(corsMiddleware.Handler())

	// Request size limit (1MB); scenario payloads are small
	r.mux.Use(chimiddleware.RequestSize(1 * 1024 * 1024))

	// Heartbeat for load balancer health checks
	r.mux.Use(chimiddleware.Heartbeat("/ping"))
}

// timeoutMiddleware creates a timeout middleware that excludes the
// websocket feed, which holds its connection open.
func (r *Router) timeoutMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/ws") {
				next.ServeHTTP(w, req)
				return
			}

			chimiddleware.Timeout(30*time.Second)(next).ServeHTTP(w, req)
		})
	}
}

// setupRoutes configures API routes
func (r *Router) setupRoutes() {
	builder := handlers.NewNetworkBuilder(r.config)

	// Health check endpoints (no version prefix for load balancers)
	healthHandler := handlers.NewHealthHandler(r.config, r.runs)
	r.mux.Get("/health", healthHandler.Handle)
	r.mux.Get("/readiness", healthHandler.HandleReadiness)
	r.mux.Get("/liveness", healthHandler.HandleLiveness)

	// API v1 routes
	r.mux.Route("/api/v1", func(rtr chi.Router) {
		// Health check endpoints with version prefix
		rtr.Get("/health", healthHandler.Handle)
		rtr.Get("/readiness", healthHandler.HandleReadiness)
		rtr.Get("/liveness", healthHandler.HandleLiveness)

		// Simulation and operator-added trains
		simulationHandler := handlers.NewSimulationHandler(r.config, r.sessions, builder, r.runs)
		rtr.Post("/simulation/run", simulationHandler.Run)
		rtr.Post("/trains", simulationHandler.AddTrain)

		// Scenario analysis
		scenarioHandler := handlers.NewScenarioHandler(r.sessions, builder, r.analyzer, r.runs)
		rtr.Post("/scenario/analyze", scenarioHandler.Analyze)

		// Conflict registry and lifecycle
		conflictHandler := handlers.NewConflictHandler(r.sessions, r.runs)
		rtr.Route("/conflicts", func(cr chi.Router) {
			cr.Get("/", conflictHandler.List)
			cr.Post("/detect", conflictHandler.Detect)
			cr.Post("/{id}/register", conflictHandler.Register)
			cr.Post("/{id}/confirm", conflictHandler.Confirm)
		})

		// Recommendations
		recommendationHandler := handlers.NewRecommendationHandler(r.sessions)
		rtr.Route("/recommendations", func(rr chi.Router) {
			rr.Get("/", recommendationHandler.List)
			rr.Post("/{id}/accept", recommendationHandler.Accept)
		})

		// Network topology
		networkHandler := handlers.NewNetworkHandler(r.sessions, builder)
		rtr.Route("/network", func(nr chi.Router) {
			nr.Get("/stations", networkHandler.Stations)
			nr.Get("/sections", networkHandler.Sections)
		})

		// Sessions
		sessionHandler := handlers.NewSessionHandler(r.sessions)
		rtr.Get("/sessions", sessionHandler.List)
		rtr.Post("/sessions", sessionHandler.Create)

		// Archived runs
		runsHandler := handlers.NewRunsHandler(r.runs)
		rtr.Get("/runs", runsHandler.List)
	})

	// Live conflict feed
	if r.hub != nil {
		r.mux.Get("/ws", websocket.Handler(r.hub))
	}

	// Root endpoint with server info
	r.mux.Get("/", r.handleRoot)

	r.mux.NotFound(r.handleNotFound)
	r.mux.MethodNotAllowed(r.handleMethodNotAllowed)
}

// handleRoot handles requests to the root endpoint
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	endpoints := map[string]string{
		"health":          "/health",
		"readiness":       "/readiness",
		"liveness":        "/liveness",
		"simulation_run":  "/api/v1/simulation/run",
		"add_train":       "/api/v1/trains",
		"analyze":         "/api/v1/scenario/analyze",
		"conflicts":       "/api/v1/conflicts",
		"detect":          "/api/v1/conflicts/detect",
		"recommendations": "/api/v1/recommendations",
		"stations":        "/api/v1/network/stations",
		"sections":        "/api/v1/network/sections",
		"sessions":        "/api/v1/sessions",
		"runs":            "/api/v1/runs",
	}
	if r.hub != nil {
		endpoints["feed"] = "/ws"
	}

	serverInfo := map[string]interface{}{
		"server":      "railwatch",
		"version":     r.version,
		"api_version": "v1",
		"endpoints":   endpoints,
		"protocols":   []string{"HTTP", "WebSocket"},
		"status":      "running",
		"features": map[string]bool{
			"narrative_analysis": r.analyzer != nil,
			"conflict_feed":      r.hub != nil,
			"run_archive":        r.runs != nil,
		},
	}

	response.WriteSuccess(w, serverInfo)
}

// handleNotFound handles 404 errors
func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request) {
	response.WriteNotFound(w, "Endpoint not found", "The requested resource does not exist")
}

// handleMethodNotAllowed handles 405 errors
func (r *Router) handleMethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	response.WriteMethodNotAllowed(w, "Method not allowed", "The HTTP method is not supported for this endpoint")
}
