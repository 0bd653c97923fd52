package ports

import (
	"context"
	"encoding/json"
	"errors"
	"routemax-service/internal/domain"
)

// TravelMode selects the optimizer's routing profile.
type TravelMode string

const (
	ModeDriving   TravelMode = "driving"
	ModeBicycling TravelMode = "bicycling"
	ModeWalking   TravelMode = "walking"
)

// Valid reports whether the mode is one the optimizer accepts.
func (m TravelMode) Valid() bool {
	switch m {
	case ModeDriving, ModeBicycling, ModeWalking:
		return true
	}
	return false
}

// MaxOptimizerLocations is the hard cap on locations per optimizer call,
// origin and destination included.
const MaxOptimizerLocations = 25

// Leg holds travel metrics between two consecutive stops. Duration is the
// provider's textual encoding ("1234s", "21 mins", "1 hour 5 mins").
type Leg struct {
	DistanceMeters int    `json:"distance_meters"`
	Duration       string `json:"duration"`
}

// OptimizeRequest describes one optimizer invocation.
type OptimizeRequest struct {
	Origin      domain.Coordinates
	Destination domain.Coordinates
	Waypoints   []domain.Coordinates
	Mode        TravelMode
	// PreserveOrder skips sequence optimization and keeps the input order.
	// Cheaper on quota; used as the fallback after a rate-limit response.
	PreserveOrder bool
}

// OptimizeResult is the provider's answer: a visit order over the input
// waypoints plus per-leg metrics from origin through every waypoint to the
// destination (len(Legs) == len(Waypoints)+1).
type OptimizeResult struct {
	WaypointOrder []int           `json:"waypoint_order"`
	Legs          []Leg           `json:"legs"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

var (
	// ErrRateLimited reports optimizer backpressure. It is surfaced
	// immediately, never retried; callers may fall back to PreserveOrder.
	ErrRateLimited = errors.New("route optimizer: rate limited")
	// ErrNoRoute reports that the provider could not route the waypoints.
	ErrNoRoute = errors.New("route optimizer: no route found")
)

// Port: a boundary for the external sequence-optimization service.
type RouteOptimizer interface {
	// Return an optimized visit order and per-leg travel metrics.
	OptimizeWaypoints(ctx context.Context, req OptimizeRequest) (OptimizeResult, error)
}
