package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres database schema.
func InitPostgresSchema(db *sql.DB) error {
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
		client_id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		opening_time TEXT NOT NULL DEFAULT '',
		closing_time TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		start_address TEXT NOT NULL,
		start_lat DOUBLE PRECISION NOT NULL,
		start_lng DOUBLE PRECISION NOT NULL,
		start_datetime TIMESTAMPTZ NOT NULL,
		end_address TEXT NOT NULL,
		end_lat DOUBLE PRECISION NOT NULL,
		end_lng DOUBLE PRECISION NOT NULL,
		end_datetime TIMESTAMPTZ NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		total_duration_minutes INTEGER NOT NULL,
		total_visits INTEGER NOT NULL,
		lunch_break_start_time TEXT NOT NULL DEFAULT '',
		lunch_break_duration_minutes INTEGER NOT NULL DEFAULT 0,
		vehicle_type TEXT NOT NULL,
		optimization_method TEXT NOT NULL,
		optimization_metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createRouteStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		stop_id BIGSERIAL PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES routes(route_id) ON DELETE CASCADE,
		client_id BIGINT,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		stop_order INTEGER NOT NULL,
		estimated_arrival TIMESTAMPTZ NOT NULL,
		estimated_departure TIMESTAMPTZ NOT NULL,
		duration_from_previous_minutes INTEGER NOT NULL DEFAULT 0,
		distance_from_previous_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		visit_duration_minutes INTEGER NOT NULL DEFAULT 0,
		is_included BOOLEAN NOT NULL DEFAULT TRUE,
		stop_type TEXT NOT NULL,
		UNIQUE (route_id, stop_order)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		resolved_at TIMESTAMPTZ NOT NULL
	);
	`

	// Corridor bounding queries filter on user + position.
	createClientsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_clients_user_position
	ON clients(user_id, lat, lng);
	`

	createRoutesIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_routes_user_created
	ON routes(user_id, created_at DESC);
	`

	statements := []string{
		createClientsQuery,
		createRoutesQuery,
		createRouteStopsQuery,
		createGeocodeCacheQuery,
		createClientsIndexQuery,
		createRoutesIndexQuery,
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

// SeedPostgresClients upserts seed client rows for local runs.
func SeedPostgresClients(db *sql.DB, seeds []ClientSeed) error {
	if len(seeds) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed clients: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO clients (client_id, user_id, name, address, lat, lng, opening_time, closing_time, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
	ON CONFLICT (client_id) DO UPDATE
	SET user_id = EXCLUDED.user_id,
		name = EXCLUDED.name,
		address = EXCLUDED.address,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		opening_time = EXCLUDED.opening_time,
		closing_time = EXCLUDED.closing_time,
		is_active = TRUE;
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
