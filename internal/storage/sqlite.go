// Package storage provides SQLite-based persistence for save slots and run history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrSlotNotFound is returned when no snapshot is stored under a key.
var ErrSlotNotFound = errors.New("storage: slot not found")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// SlotRecord is a stored snapshot document.
type SlotRecord struct {
	Key       string
	Version   int
	Data      []byte
	UpdatedAt time.Time
}

// RunEntry records one finished run (a reset or the ending).
type RunEntry struct {
	ID           int64
	Slot         string
	PeakMoney    int64
	TotalEarned  int64
	Merges       int
	Achievements int
	HighestLevel int
	Reason       string // "reset", "ending"
	CreatedAt    time.Time
}

// Run end reasons.
const (
	RunReasonReset  = "reset"
	RunReasonEnding = "ending"
)

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS saves (
			key TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			data BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			slot TEXT NOT NULL,
			peak_money INTEGER NOT NULL,
			total_earned INTEGER NOT NULL DEFAULT 0,
			merges INTEGER NOT NULL DEFAULT 0,
			achievements INTEGER NOT NULL DEFAULT 0,
			highest_level INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_slot ON runs(slot);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(peak_money DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSlot writes a snapshot under key, replacing any previous one.
func (s *Store) SaveSlot(key string, version int, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO saves (key, version, data, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET
		   version = excluded.version,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		key, version, data,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save slot %s: %w", key, err)
	}
	return nil
}

// LoadSlot reads the snapshot stored under key.
// Returns ErrSlotNotFound if nothing was saved there.
func (s *Store) LoadSlot(key string) (SlotRecord, error) {
	rec := SlotRecord{Key: key}
	var updatedAt any
	err := s.db.QueryRow(
		"SELECT version, data, updated_at FROM saves WHERE key = ?",
		key,
	).Scan(&rec.Version, &rec.Data, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrSlotNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("storage: cannot load slot %s: %w", key, err)
	}
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}

// DeleteSlot removes the snapshot stored under key. Deleting a missing slot is not an error.
func (s *Store) DeleteSlot(key string) error {
	if _, err := s.db.Exec("DELETE FROM saves WHERE key = ?", key); err != nil {
		return fmt.Errorf("storage: cannot delete slot %s: %w", key, err)
	}
	return nil
}

// ListSlots returns every stored slot without its data, most recently updated first.
func (s *Store) ListSlots() ([]SlotRecord, error) {
	rows, err := s.db.Query(
		`SELECT key, version, updated_at FROM saves ORDER BY updated_at DESC, key`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query slots: %w", err)
	}
	defer rows.Close()

	var records []SlotRecord
	for rows.Next() {
		var rec SlotRecord
		var updatedAt any
		if err := rows.Scan(&rec.Key, &rec.Version, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		rec.UpdatedAt = parseTime(updatedAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

// SaveRun records a finished run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(run RunEntry) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (slot, peak_money, total_earned, merges, achievements, highest_level, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Slot, run.PeakMoney, run.TotalEarned, run.Merges, run.Achievements, run.HighestLevel, run.Reason,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopRuns retrieves the best runs by peak money. An empty slot matches every slot.
func (s *Store) TopRuns(slot string, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, slot, peak_money, total_earned, merges, achievements, highest_level, reason, created_at
		 FROM runs
		 WHERE ? = '' OR slot = ?
		 ORDER BY peak_money DESC, id
		 LIMIT ?`,
		slot, slot, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Slot, &e.PeakMoney, &e.TotalEarned, &e.Merges,
			&e.Achievements, &e.HighestLevel, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// RunStats contains aggregated statistics for one slot.
type RunStats struct {
	Slot      string
	Runs      int
	BestPeak  int64
	Endings   int
	LastRunAt time.Time
}

// GetRunStats retrieves aggregated run statistics for a slot.
func (s *Store) GetRunStats(slot string) (*RunStats, error) {
	stats := &RunStats{Slot: slot}
	var lastRun any

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(peak_money), 0),
		        COALESCE(SUM(CASE WHEN reason = ? THEN 1 ELSE 0 END), 0), MAX(created_at)
		 FROM runs WHERE slot = ?`,
		RunReasonEnding, slot,
	).Scan(&stats.Runs, &stats.BestPeak, &stats.Endings, &lastRun)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get run stats: %w", err)
	}
	stats.LastRunAt = parseTime(lastRun)

	return stats, nil
}

// parseTime handles both time.Time and string datetimes returned by the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
