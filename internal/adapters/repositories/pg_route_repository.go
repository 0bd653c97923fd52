package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
)

// Postgres-backed implementation of the RouteRepository port. The route row
// and its stops are written in one transaction so a failed stop insert never
// leaves an orphan route behind.
type PgRouteRepository struct{ DB *sql.DB }

func NewPgRouteRepository(db *sql.DB) *PgRouteRepository {
	return &PgRouteRepository{DB: db}
}

// Persist the route and its stops atomically and return the stored route
// with ids assigned.
func (r *PgRouteRepository) SaveRoute(ctx context.Context, route *domain.Route) (*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("pg route repository: DB is nil")
	}
	if route == nil {
		return nil, errors.New("save route: route is nil")
	}

	metadata, err := json.Marshal(route.Metadata)
	if err != nil {
		return nil, fmt.Errorf("save route: marshal metadata: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertRoute := `
	INSERT INTO routes (
		user_id, name,
		start_address, start_lat, start_lng, start_datetime,
		end_address, end_lat, end_lng, end_datetime,
		total_distance_km, total_duration_minutes, total_visits,
		lunch_break_start_time, lunch_break_duration_minutes,
		vehicle_type, optimization_method, optimization_metadata
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	RETURNING route_id, created_at;
	`
	err = tx.QueryRowContext(ctx, insertRoute,
		route.UserID, route.Name,
		route.StartAddress, route.StartPosition.Lat, route.StartPosition.Lng, route.StartDatetime,
		route.EndAddress, route.EndPosition.Lat, route.EndPosition.Lng, route.EndDatetime,
		route.TotalDistanceKm, route.TotalDurationMinutes, route.TotalVisits,
		route.LunchBreakStartTime, route.LunchBreakDurationMinutes,
		route.VehicleType, route.OptimizationMethod, metadata,
	).Scan(&route.RouteID, &route.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save route: insert route row: %w", err)
	}

	insertStop := `
	INSERT INTO route_stops (
		route_id, client_id, name, address, lat, lng, stop_order,
		estimated_arrival, estimated_departure,
		duration_from_previous_minutes, distance_from_previous_km,
		visit_duration_minutes, is_included, stop_type
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING stop_id;
	`
	stmt, err := tx.PrepareContext(ctx, insertStop)
	if err != nil {
		return nil, fmt.Errorf("save route: prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for i := range route.Stops {
		s := &route.Stops[i]
		s.RouteID = route.RouteID

		var clientID sql.NullInt64
		if s.ClientID != 0 {
			clientID = sql.NullInt64{Int64: s.ClientID, Valid: true}
		}

		err = stmt.QueryRowContext(ctx,
			route.RouteID, clientID, s.Name, s.Address, s.Position.Lat, s.Position.Lng, s.StopOrder,
			s.EstimatedArrival, s.EstimatedDeparture,
			s.DurationFromPreviousMinutes, s.DistanceFromPreviousKm,
			s.VisitDurationMinutes, s.IsIncluded, string(s.StopType),
		).Scan(&s.StopID)
		if err != nil {
			return nil, fmt.Errorf("save route: insert stop order=%d: %w", s.StopOrder, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save route: commit tx: %w", err)
	}

	return route, nil
}

// Return all routes owned by the user, newest first, without stops.
func (r *PgRouteRepository) ListRoutes(ctx context.Context, userID string) ([]*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("pg route repository: DB is nil")
	}

	query := routeSelect + `
	WHERE user_id = $1
	ORDER BY created_at DESC;
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0, 16)
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return routes, nil
}

// Return one owned route with its stops ordered by stop_order.
func (r *PgRouteRepository) GetRoute(ctx context.Context, userID string, routeID int64) (*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("pg route repository: DB is nil")
	}

	query := routeSelect + `
	WHERE user_id = $1 AND route_id = $2;
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route: query routes table: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get route: row iteration: %w", err)
		}
		return nil, ports.ErrRouteNotFound
	}

	route, err := scanRoute(rows)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	rows.Close()

	stops, err := r.listStops(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	route.Stops = stops

	return route, nil
}

func (r *PgRouteRepository) listStops(ctx context.Context, routeID int64) ([]domain.RouteStop, error) {
	query := `
	SELECT
		stop_id, route_id, client_id, name, address, lat, lng, stop_order,
		estimated_arrival, estimated_departure,
		duration_from_previous_minutes, distance_from_previous_km,
		visit_duration_minutes, is_included, stop_type
	FROM route_stops
	WHERE route_id = $1
	ORDER BY stop_order;
	`
	rows, err := r.DB.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("list stops: query route_stops table: %w", err)
	}
	defer rows.Close()

	return scanStops(rows)
}

func scanStops(rows *sql.Rows) ([]domain.RouteStop, error) {
	stops := make([]domain.RouteStop, 0, 16)
	for rows.Next() {
		var s domain.RouteStop
		var clientID sql.NullInt64
		var stopType string
		err := rows.Scan(
			&s.StopID, &s.RouteID, &clientID, &s.Name, &s.Address,
			&s.Position.Lat, &s.Position.Lng, &s.StopOrder,
			&s.EstimatedArrival, &s.EstimatedDeparture,
			&s.DurationFromPreviousMinutes, &s.DistanceFromPreviousKm,
			&s.VisitDurationMinutes, &s.IsIncluded, &stopType,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stop row: %w", err)
		}
		if clientID.Valid {
			s.ClientID = clientID.Int64
		}
		s.StopType = domain.StopType(stopType)
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stop row iteration: %w", err)
	}

	return stops, nil
}

const routeSelect = `
	SELECT
		route_id, user_id, name,
		start_address, start_lat, start_lng, start_datetime,
		end_address, end_lat, end_lng, end_datetime,
		total_distance_km, total_duration_minutes, total_visits,
		lunch_break_start_time, lunch_break_duration_minutes,
		vehicle_type, optimization_method, optimization_metadata,
		created_at
	FROM routes
`

func scanRoute(rows *sql.Rows) (*domain.Route, error) {
	var route domain.Route
	var metadata []byte
	err := rows.Scan(
		&route.RouteID, &route.UserID, &route.Name,
		&route.StartAddress, &route.StartPosition.Lat, &route.StartPosition.Lng, &route.StartDatetime,
		&route.EndAddress, &route.EndPosition.Lat, &route.EndPosition.Lng, &route.EndDatetime,
		&route.TotalDistanceKm, &route.TotalDurationMinutes, &route.TotalVisits,
		&route.LunchBreakStartTime, &route.LunchBreakDurationMinutes,
		&route.VehicleType, &route.OptimizationMethod, &metadata,
		&route.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan route row: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &route.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal route metadata: %w", err)
		}
	}

	return &route, nil
}
