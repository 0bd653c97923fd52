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

// SQLite-backed implementation of the RouteRepository port. Same transactional
// contract as the Postgres variant.
type SqliteRouteRepository struct{ DB *sql.DB }

func NewSqliteRouteRepository(db *sql.DB) *SqliteRouteRepository {
	return &SqliteRouteRepository{DB: db}
}

func (r *SqliteRouteRepository) SaveRoute(ctx context.Context, route *domain.Route) (*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING route_id, created_at;
	`
	err = tx.QueryRowContext(ctx, insertRoute,
		route.UserID, route.Name,
		route.StartAddress, route.StartPosition.Lat, route.StartPosition.Lng, route.StartDatetime,
		route.EndAddress, route.EndPosition.Lat, route.EndPosition.Lng, route.EndDatetime,
		route.TotalDistanceKm, route.TotalDurationMinutes, route.TotalVisits,
		route.LunchBreakStartTime, route.LunchBreakDurationMinutes,
		route.VehicleType, route.OptimizationMethod, string(metadata),
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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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

func (r *SqliteRouteRepository) ListRoutes(ctx context.Context, userID string) ([]*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
	}

	query := routeSelect + `
	WHERE user_id = ?
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

func (r *SqliteRouteRepository) GetRoute(ctx context.Context, userID string, routeID int64) (*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
	}

	query := routeSelect + `
	WHERE user_id = ? AND route_id = ?;
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

	stopsQuery := `
	SELECT
		stop_id, route_id, client_id, name, address, lat, lng, stop_order,
		estimated_arrival, estimated_departure,
		duration_from_previous_minutes, distance_from_previous_km,
		visit_duration_minutes, is_included, stop_type
	FROM route_stops
	WHERE route_id = ?
	ORDER BY stop_order;
	`
	stopRows, err := r.DB.QueryContext(ctx, stopsQuery, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route: query route_stops table: %w", err)
	}
	defer stopRows.Close()

	stops, err := scanStops(stopRows)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	route.Stops = stops

	return route, nil
}
