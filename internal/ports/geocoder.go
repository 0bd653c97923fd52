package ports

import (
	"context"
	"routemax-service/internal/domain"
)

// Port: resolves a free-form address to coordinates. Used only when a
// custom-address target arrives without coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
