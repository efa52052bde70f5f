// Package store owns the embedded analytical engine: an SQLite database
// holding the loaded procurement dataset, plus the ingest, search, count and
// aggregate operations the application issues against it. Every value that
// reaches SQL arrives through parameter binding; user input is never spliced
// into query text.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"bidwatch/internal/logging"
)

// Store wraps the contracts database. Safe for concurrent use; SQLite runs
// on a single connection in WAL mode.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string

	watcher *datasetWatcher
}

// Open initializes the contracts database at path (":memory:" for tests).
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("contracts database ready at %s", path)
	return s, nil
}

// initialize creates the contracts schema.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		award_id TEXT NOT NULL,
		reference_id TEXT,
		award_title TEXT,
		awardee TEXT,
		organization TEXT,
		area TEXT,
		category TEXT,
		amount REAL DEFAULT 0,
		award_date TEXT,
		status TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_area ON contracts(area);
	CREATE INDEX IF NOT EXISTS idx_contracts_category ON contracts(category);
	CREATE INDEX IF NOT EXISTS idx_contracts_amount ON contracts(amount DESC);
	CREATE INDEX IF NOT EXISTS idx_contracts_awardee ON contracts(awardee);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close releases the database and any dataset watcher.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.stop()
		s.watcher = nil
	}
	return s.db.Close()
}
