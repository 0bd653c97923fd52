package ports

import (
	"context"
	"routemax-service/internal/domain"
)

// CorridorBounds is a lat/lng bounding region used to narrow client lookups
// before the exact corridor math runs.
type CorridorBounds struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// Port: a boundary for retrieving Client entities owned by a user.
type ClientRepository interface {
	// Return all active clients owned by the user.
	ListActiveClients(ctx context.Context, userID string) ([]*domain.Client, error)
	// Return owned clients by id; ids not owned by the user are simply
	// absent from the result.
	GetClientsByID(ctx context.Context, userID string, ids []int64) (map[int64]*domain.Client, error)
}

// Optional extension of ClientRepository backed by a spatial index.
// Callers fall back to ListActiveClients plus in-process filtering when the
// extension is unavailable or its query fails.
type CorridorClientRepository interface {
	ClientRepository
	// Return active owned clients inside the bounding region.
	ListClientsInBounds(ctx context.Context, userID string, b CorridorBounds) ([]*domain.Client, error)
}
