// server is the railwatch API binary: it serves the schedule
// simulation, conflict detection and scenario analysis endpoints over
// HTTP, plus the live conflict feed over WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"railwatch/internal/analysis"
	"railwatch/internal/api"
	"railwatch/internal/archive"
	"railwatch/internal/config"
	"railwatch/internal/logging"
	"railwatch/internal/session"
	"railwatch/internal/websocket"
)

// sessionMaxAge is how long an untouched session survives before the
// cleanup sweep drops it.
const sessionMaxAge = 2 * time.Hour

func main() {
	var (
		addr    = flag.String("addr", "", "Listen address (overrides config host:port)")
		dataDir = flag.String("data", "", "Data directory (overrides config)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}

	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	logging.SetDefaultLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *addr); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, addrOverride string) error {
	// Run archive; the server stays up without it.
	var runs *archive.Store
	store, err := archive.NewStore(&archive.Config{DatabasePath: cfg.Data.ArchivePath})
	if err != nil {
		log.Printf("⚠️  Run archive unavailable: %v", err)
	} else if err := store.Start(); err != nil {
		log.Printf("⚠️  Run archive failed to start: %v", err)
	} else {
		runs = store
		defer func() {
			if err := runs.Stop(); err != nil {
				log.Printf("Error stopping run archive: %v", err)
			}
		}()
	}

	// Live conflict feed. The feed variable stays a nil interface when
	// the hub is disabled so the session manager falls back to its noop
	// notifier.
	var hub *websocket.Hub
	var feed session.Notifier
	if cfg.WebSocket.Enabled {
		hub = websocket.NewHub(cfg.WebSocket.SendBufferSize)
		go hub.Run(ctx)
		feed = hub
	}

	var narrative *analysis.NarrativeClient
	if cfg.Analysis.Enabled() {
		narrative, err = analysis.NewNarrativeClient(cfg.Analysis.APIKey, cfg.Analysis.BaseURL)
		if err != nil {
			return fmt.Errorf("narrative client: %w", err)
		}
		log.Printf("🧠 Narrative analysis enabled")
	}

	sessions := session.NewManager(feed)
	go sweepSessions(ctx, sessions)

	router := api.NewRouter(cfg, sessions, analysis.NewAnalyzer(narrative), hub, runs)

	addr := addrOverride
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚂 railwatch listening on http://%s", addr)
		log.Printf("📋 API base: http://%s/api/v1", addr)
		if hub != nil {
			log.Printf("🔌 Conflict feed: ws://%s/ws", addr)
		}
		log.Printf("💚 Health check: http://%s/health", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")

	// The parent context is already cancelled; shutdown needs its own.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// sweepSessions drops idle sessions on a slow cadence.
func sweepSessions(ctx context.Context, sessions *session.Manager) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.CleanupExpired(sessionMaxAge); n > 0 {
				log.Printf("Cleaned up %d expired sessions", n)
			}
		}
	}
}
