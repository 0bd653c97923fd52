package ports

import (
	"context"
	"errors"
	"routemax-service/internal/domain"
)

// ErrRouteNotFound reports a route id that does not exist for the caller.
var ErrRouteNotFound = errors.New("route repository: route not found")

// Port: a boundary for persisting and reading constructed routes.
type RouteRepository interface {
	// Persist the route and its stops in one transaction and return the
	// stored route with ids assigned. Implementations must not leave a
	// route row behind when stop insertion fails.
	SaveRoute(ctx context.Context, route *domain.Route) (*domain.Route, error)
	// Return all routes owned by the user, newest first, without stops.
	ListRoutes(ctx context.Context, userID string) ([]*domain.Route, error)
	// Return one owned route with its stops ordered by stop_order.
	// Returns ErrRouteNotFound when the id does not exist or is not owned.
	GetRoute(ctx context.Context, userID string, routeID int64) (*domain.Route, error)
}
