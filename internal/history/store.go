// Package history provides SQLite-backed storage of test run outcomes.
// Recorded runs feed the prioritizer's failure-rate, slow-test, and
// new-test signals across pipeline invocations.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cruciblehq/crucible/pkg/models"
)

// Store wraps an SQLite database holding test run history.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultPath returns the project-local history database path.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".crucible", "history.db")
}

// Open opens the history database at the given path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &Store{
		conn: conn,
		path: path,
	}

	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

// migrate applies all pending schema migrations.
func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1TestRuns},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1TestRuns = `
CREATE TABLE IF NOT EXISTS test_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	test_path TEXT NOT NULL,
	status TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_runs_test_path ON test_runs(test_path);
`

// RecordRun stores one test unit outcome.
func (s *Store) RecordRun(testPath string, status models.TestStatus, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		"INSERT INTO test_runs (test_path, status, duration_ms, created_at) VALUES (?, ?, ?, ?)",
		testPath, string(status), duration.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record test run: %w", err)
	}
	return nil
}

// Stats returns aggregated history for one test file. A test with no
// recorded runs yields a zero-run record, not an error.
func (s *Store) Stats(testPath string) (models.TestStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.TestStats{TestFilePath: testPath}

	row := s.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM test_runs WHERE test_path = ?
	`, testPath)

	var avgMs float64
	if err := row.Scan(&stats.Runs, &stats.Failures, &avgMs); err != nil {
		return models.TestStats{}, fmt.Errorf("query test stats: %w", err)
	}
	stats.AvgDuration = time.Duration(avgMs) * time.Millisecond

	if stats.Runs == 0 {
		return stats, nil
	}

	row = s.conn.QueryRow(
		"SELECT status, created_at FROM test_runs WHERE test_path = ? ORDER BY id DESC LIMIT 1",
		testPath,
	)
	var lastStatus string
	if err := row.Scan(&lastStatus, &stats.LastRunAt); err != nil && err != sql.ErrNoRows {
		return models.TestStats{}, fmt.Errorf("query last run: %w", err)
	}
	stats.LastStatus = models.TestStatus(lastStatus)

	return stats, nil
}

// StatsAll returns aggregated history for every recorded test file.
func (s *Store) StatsAll() ([]models.TestStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT test_path,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM test_runs
		GROUP BY test_path
		ORDER BY test_path
	`)
	if err != nil {
		return nil, fmt.Errorf("query test stats: %w", err)
	}
	defer rows.Close()

	var all []models.TestStats
	for rows.Next() {
		var stats models.TestStats
		var avgMs float64
		if err := rows.Scan(&stats.TestFilePath, &stats.Runs, &stats.Failures, &avgMs); err != nil {
			return nil, fmt.Errorf("scan test stats: %w", err)
		}
		stats.AvgDuration = time.Duration(avgMs) * time.Millisecond
		all = append(all, stats)
	}
	return all, rows.Err()
}
