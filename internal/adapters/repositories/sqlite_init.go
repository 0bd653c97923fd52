package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema used for local runs and tests.
func InitSqliteSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createClientsQuery := `
	CREATE TABLE IF NOT EXISTS clients (
		client_id INTEGER PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		opening_time TEXT NOT NULL DEFAULT '',
		closing_time TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		start_address TEXT NOT NULL,
		start_lat REAL NOT NULL,
		start_lng REAL NOT NULL,
		start_datetime TIMESTAMP NOT NULL,
		end_address TEXT NOT NULL,
		end_lat REAL NOT NULL,
		end_lng REAL NOT NULL,
		end_datetime TIMESTAMP NOT NULL,
		total_distance_km REAL NOT NULL,
		total_duration_minutes INTEGER NOT NULL,
		total_visits INTEGER NOT NULL,
		lunch_break_start_time TEXT NOT NULL DEFAULT '',
		lunch_break_duration_minutes INTEGER NOT NULL DEFAULT 0,
		vehicle_type TEXT NOT NULL,
		optimization_method TEXT NOT NULL,
		optimization_metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	createRouteStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		stop_id INTEGER PRIMARY KEY AUTOINCREMENT,
		route_id INTEGER NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		client_id INTEGER,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		stop_order INTEGER NOT NULL,
		estimated_arrival TIMESTAMP NOT NULL,
		estimated_departure TIMESTAMP NOT NULL,
		duration_from_previous_minutes INTEGER NOT NULL DEFAULT 0,
		distance_from_previous_km REAL NOT NULL DEFAULT 0,
		visit_duration_minutes INTEGER NOT NULL DEFAULT 0,
		is_included INTEGER NOT NULL DEFAULT 1,
		stop_type TEXT NOT NULL,
		UNIQUE (route_id, stop_order)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		resolved_at TIMESTAMP NOT NULL
	);
	`

	statements := []string{
		createClientsQuery,
		createRoutesQuery,
		createRouteStopsQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedSqliteClients upserts seed client rows for local runs.
func SeedSqliteClients(db *sql.DB, seeds []ClientSeed) error {
	if len(seeds) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed clients: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT OR REPLACE INTO clients (client_id, user_id, name, address, lat, lng, opening_time, closing_time, is_active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1);
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed clients: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range seeds {
		if _, err := stmt.Exec(c.ClientID, c.UserID, c.Name, c.Address, c.Lat, c.Lng, c.OpeningTime, c.ClosingTime); err != nil {
			return fmt.Errorf("seed clients: insert client_id=%d: %w", c.ClientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed clients: commit tx: %w", err)
	}

	return nil
}
