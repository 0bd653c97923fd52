package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"routemax-service/internal/domain"
	"routemax-service/internal/geo"
	"routemax-service/internal/ports"
)

// MockOptimizer is a deterministic in-memory optimizer for tests and local
// development. The visit order greedily picks the nearest unvisited waypoint
// (input order when PreserveOrder is set); legs derive from great-circle
// distance at a fixed speed unless LegDuration overrides them.
type MockOptimizer struct {
	SpeedKmh    float64 // defaults to 50
	LegDuration func(from, to domain.Coordinates) time.Duration
	Calls       int
}

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{SpeedKmh: 50}
}

func (m *MockOptimizer) OptimizeWaypoints(
	ctx context.Context,
	req ports.OptimizeRequest,
) (ports.OptimizeResult, error) {
	m.Calls++

	speed := m.SpeedKmh
	if speed <= 0 {
		speed = 50
	}

	order := make([]int, 0, len(req.Waypoints))
	if req.PreserveOrder {
		for i := range req.Waypoints {
			order = append(order, i)
		}
	} else {
		// Greedy nearest-neighbor walk; lower index wins ties so the
		// result is deterministic.
		visited := make([]bool, len(req.Waypoints))
		current := req.Origin
		for len(order) < len(req.Waypoints) {
			best := -1
			bestDist := math.MaxFloat64
			for i, wp := range req.Waypoints {
				if visited[i] {
					continue
				}
				d := m.distanceMeters(current, wp)
				if d < bestDist {
					best = i
					bestDist = d
				}
			}
			visited[best] = true
			order = append(order, best)
			current = req.Waypoints[best]
		}
	}

	legs := make([]ports.Leg, 0, len(order)+1)
	current := req.Origin
	for _, idx := range order {
		legs = append(legs, m.leg(current, req.Waypoints[idx], speed))
		current = req.Waypoints[idx]
	}
	legs = append(legs, m.leg(current, req.Destination, speed))

	return ports.OptimizeResult{
		WaypointOrder: order,
		Legs:          legs,
		Raw:           json.RawMessage(`{"provider":"mock"}`),
	}, nil
}

func (m *MockOptimizer) leg(from, to domain.Coordinates, speedKmh float64) ports.Leg {
	meters := m.distanceMeters(from, to)

	var dur time.Duration
	if m.LegDuration != nil {
		dur = m.LegDuration(from, to)
	} else {
		dur = time.Duration(meters / (speedKmh * 1000 / 3600) * float64(time.Second))
	}

	return ports.Leg{
		DistanceMeters: int(math.Round(meters)),
		Duration:       fmt.Sprintf("%ds", int(dur.Seconds())),
	}
}

func (m *MockOptimizer) distanceMeters(a, b domain.Coordinates) float64 {
	return geo.HaversineMeters(geo.Point{Lat: a.Lat, Lng: a.Lng}, geo.Point{Lat: b.Lat, Lng: b.Lng})
}
