// Package archive persists completed run records to SQLite for later
// inspection and replay.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"railwatch/internal/logging"
)

// RunKind labels the operation that produced a run record
type RunKind string

const (
	RunKindSimulation RunKind = "simulation"
	RunKindDetection  RunKind = "detection"
	RunKindScenario   RunKind = "scenario"
	RunKindItinerary  RunKind = "itinerary"
)

// Record is one archived run
type Record struct {
	ID            string                 `json:"id"`
	SessionID     string                 `json:"session_id,omitempty"`
	Kind          RunKind                `json:"kind"`
	StartedAt     time.Time              `json:"started_at"`
	TrainCount    int                    `json:"train_count"`
	LegCount      int                    `json:"leg_count"`
	ConflictCount int                    `json:"conflict_count"`
	SkippedStops  int                    `json:"skipped_stops"`
	Summary       map[string]interface{} `json:"summary,omitempty"`
}

// Config configures the run archive
type Config struct {
	DatabasePath    string        `json:"database_path"`
	BufferSize      int           `json:"buffer_size"`
	BatchSize       int           `json:"batch_size"`
	FlushInterval   time.Duration `json:"flush_interval"`
	RetentionPeriod time.Duration `json:"retention_period"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// DefaultConfig returns default archive configuration
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    "runs.db",
		BufferSize:      1024,
		BatchSize:       32,
		FlushInterval:   2 * time.Second,
		RetentionPeriod: 30 * 24 * time.Hour, // 30 days
		CleanupInterval: time.Hour,
	}
}

// Store provides buffered run persistence and retrieval
type Store struct {
	db          *sql.DB
	config      *Config
	writeBuffer chan *Record
	batchBuffer []*Record
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	logger      *logging.ComponentLogger
}

// NewStore creates a run archive backed by the given SQLite file
func NewStore(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	db, err := sql.Open("sqlite3", config.DatabasePath+"?_journal_mode=WAL&_sync=NORMAL&_cache_size=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())

	store := &Store{
		db:          db,
		config:      config,
		writeBuffer: make(chan *Record, config.BufferSize),
		batchBuffer: make([]*Record, 0, config.BatchSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logging.ForComponent("archive"),
	}

	if err := store.initSchema(); err != nil {
		cancel()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// Start starts the background write and cleanup routines
func (s *Store) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("run archive already running")
	}

	s.logger.Info("Starting run archive", "database", s.config.DatabasePath)

	s.wg.Add(1)
	go s.writeProcessor()

	s.wg.Add(1)
	go s.cleanupRoutine()

	s.running = true
	return nil
}

// Stop stops the archive gracefully, flushing buffered records
func (s *Store) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.New("run archive not running")
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	close(s.writeBuffer)
	s.wg.Wait()

	if len(s.batchBuffer) > 0 {
		if err := s.flushBatch(); err != nil {
			s.logger.Error("Error flushing final batch", "error", err.Error())
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database", "error", err.Error())
	}

	s.logger.Info("Run archive stopped")
	return nil
}

// IsRunning returns whether the archive is running
func (s *Store) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Ping verifies the underlying database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append queues a run record for persistence
func (s *Store) Append(rec *Record) error {
	if !s.IsRunning() {
		return errors.New("run archive not running")
	}
	if rec == nil {
		return errors.New("record cannot be nil")
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}

	select {
	case s.writeBuffer <- rec:
		return nil
	default:
		return errors.New("write buffer full, run record dropped")
	}
}

// ListRecent returns the most recent runs, newest first
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, kind, started_at, train_count, leg_count, conflict_count, skipped_stops, summary
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return s.collect(rows)
}

// BySession returns the runs recorded for one session, newest first
func (s *Store) BySession(ctx context.Context, sessionID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, kind, started_at, train_count, leg_count, conflict_count, skipped_stops, summary
		FROM runs WHERE session_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return s.collect(rows)
}

// Get retrieves a single run by ID
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, kind, started_at, train_count, leg_count, conflict_count, skipped_stops, summary
		FROM runs WHERE id = ? LIMIT 1`, id)

	rec, err := s.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to retrieve run: %w", err)
	}
	return rec, nil
}

// initSchema initializes the database schema
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		kind TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		train_count INTEGER NOT NULL,
		leg_count INTEGER NOT NULL,
		conflict_count INTEGER NOT NULL,
		skipped_stops INTEGER NOT NULL,
		summary TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_session_id ON runs(session_id);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// writeProcessor drains the write buffer into batched inserts
func (s *Store) writeProcessor() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case rec, ok := <-s.writeBuffer:
			if !ok {
				// Channel closed, flush remaining records and exit
				if len(s.batchBuffer) > 0 {
					_ = s.flushBatch()
				}
				return
			}

			s.batchBuffer = append(s.batchBuffer, rec)
			if len(s.batchBuffer) >= s.config.BatchSize {
				_ = s.flushBatch()
			}

		case <-ticker.C:
			if len(s.batchBuffer) > 0 {
				_ = s.flushBatch()
			}
		}
	}
}

// flushBatch writes the current batch to the database. The transaction
// runs on a background context so the final flush still succeeds after
// Stop cancels the store context.
func (s *Store) flushBatch() error {
	if len(s.batchBuffer) == 0 {
		return nil
	}

	startTime := time.Now()

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO runs (id, session_id, kind, started_at, train_count, leg_count, conflict_count, skipped_stops, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range s.batchBuffer {
		if err := insertRecord(stmt, rec); err != nil {
			s.logger.Error("Failed to insert run record", "run_id", rec.ID, "error", err.Error())
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("Flushed run records",
		"count", len(s.batchBuffer),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	s.batchBuffer = s.batchBuffer[:0]
	return nil
}

// insertRecord inserts a single record using a prepared statement
func insertRecord(stmt *sql.Stmt, rec *Record) error {
	summaryJSON, _ := json.Marshal(rec.Summary)

	_, err := stmt.Exec(
		rec.ID, rec.SessionID, string(rec.Kind), rec.StartedAt.UTC(),
		rec.TrainCount, rec.LegCount, rec.ConflictCount, rec.SkippedStops,
		string(summaryJSON))
	return err
}

// collect scans all rows into records
func (s *Store) collect(rows *sql.Rows) ([]*Record, error) {
	records := make([]*Record, 0)
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			s.logger.Error("Error scanning run record", "error", err.Error())
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// scanRecord scans a database row into a Record
func (s *Store) scanRecord(rows *sql.Rows) (*Record, error) {
	var rec Record
	var kind, summaryJSON string

	err := rows.Scan(&rec.ID, &rec.SessionID, &kind, &rec.StartedAt,
		&rec.TrainCount, &rec.LegCount, &rec.ConflictCount, &rec.SkippedStops, &summaryJSON)
	if err != nil {
		return nil, err
	}

	rec.Kind = RunKind(kind)
	if summaryJSON != "" && summaryJSON != "null" {
		_ = json.Unmarshal([]byte(summaryJSON), &rec.Summary)
	}
	return &rec, nil
}

// scanRow scans a single database row into a Record
func (s *Store) scanRow(row *sql.Row) (*Record, error) {
	var rec Record
	var kind, summaryJSON string

	err := row.Scan(&rec.ID, &rec.SessionID, &kind, &rec.StartedAt,
		&rec.TrainCount, &rec.LegCount, &rec.ConflictCount, &rec.SkippedStops, &summaryJSON)
	if err != nil {
		return nil, err
	}

	rec.Kind = RunKind(kind)
	if summaryJSON != "" && summaryJSON != "null" {
		_ = json.Unmarshal([]byte(summaryJSON), &rec.Summary)
	}
	return &rec, nil
}

// cleanupRoutine removes runs older than the retention period
func (s *Store) cleanupRoutine() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performCleanup()
		case <-s.ctx.Done():
			return
		}
	}
}

// performCleanup deletes expired runs and reclaims disk space
func (s *Store) performCleanup() {
	cutoff := time.Now().Add(-s.config.RetentionPeriod)
	result, err := s.db.ExecContext(s.ctx, "DELETE FROM runs WHERE created_at < ?", cutoff)
	if err != nil {
		s.logger.Error("Error during cleanup", "error", err.Error())
		return
	}

	rowsDeleted, _ := result.RowsAffected()
	if rowsDeleted > 0 {
		if _, err := s.db.ExecContext(s.ctx, "VACUUM"); err != nil {
			s.logger.Error("Error during vacuum", "error", err.Error())
		}
		s.logger.Info("Cleanup completed", "deleted", rowsDeleted)
	}
}
