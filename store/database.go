// Package store database for usage counters and cached paywall settings
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// counters are read-modify-write; a single connection keeps sqlite from
	// returning SQLITE_BUSY under concurrent handlers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	if err := database.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_counts (
		name  TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0)
	);
	CREATE TABLE IF NOT EXISTS settings_cache (
		singleton  INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		payload    TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

// GetCount returns the named counter, zero if it was never incremented.
func (d *Database) GetCount(name string) (int, error) {
	const query = `SELECT count FROM usage_counts WHERE name = ?`
	var count int
	err := d.db.QueryRow(query, name).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get count %s: %w", name, err)
	}
	return count, nil
}

// IncrementCount adds one to the named counter and returns the new value.
func (d *Database) IncrementCount(name string) (int, error) {
	const stmt = `
		INSERT INTO usage_counts (name, count) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET count = count + 1
		RETURNING count
	`
	var count int
	if err := d.db.QueryRow(stmt, name).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment count %s: %w", name, err)
	}
	return count, nil
}

// ResetCounts sets every counter back to zero.
func (d *Database) ResetCounts() error {
	if _, err := d.db.Exec(`UPDATE usage_counts SET count = 0`); err != nil {
		return fmt.Errorf("reset counts: %w", err)
	}
	return nil
}

// GetCachedSettings returns the last settings record written by
// UpsertCachedSettings, or ErrNotFound.
func (d *Database) GetCachedSettings() (*PaywallSettings, time.Time, error) {
	const query = `
		SELECT payload,
		       fetched_at
		FROM settings_cache
		WHERE singleton = 1
	`

	var payload string
	var fetchedAt int64
	err := d.db.QueryRow(query).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get cached settings: %w", err)
	}

	var settings PaywallSettings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode cached settings: %w", err)
	}
	return &settings, time.Unix(fetchedAt, 0), nil
}

// UpsertCachedSettings overwrites the cached settings record.
func (d *Database) UpsertCachedSettings(s *PaywallSettings, fetchedAt time.Time) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	const stmt = `
		INSERT INTO settings_cache (
			singleton,
			payload,
			fetched_at
		) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			payload    = excluded.payload,
			fetched_at = excluded.fetched_at
	`
	if _, err := d.db.Exec(stmt, string(payload), fetchedAt.Unix()); err != nil {
		return fmt.Errorf("upsert cached settings: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
