package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"routemax-service/internal/domain"
	"routemax-service/internal/geo"
	"routemax-service/internal/ports"
)

// DefaultMaxPruneAttempts bounds the optimize/check/prune loop.
const DefaultMaxPruneAttempts = 10

// PruneRequest describes one deadline-constrained construction: the full
// waypoint list (one mandatory plus N prunable) and the hard return-time
// deadline the computed timeline must satisfy.
type PruneRequest struct {
	StartName     string
	StartAddress  string
	StartPosition domain.Coordinates
	StartTime     time.Time

	EndName     string
	EndAddress  string
	EndPosition domain.Coordinates

	Deadline time.Time

	Waypoints []domain.Waypoint

	Mode          ports.TravelMode
	PreserveOrder bool
	MaxAttempts   int

	DefaultVisitMinutes       int
	LunchBreakStartTime       string
	LunchBreakDurationMinutes int
}

// PruneResult is a successful outcome: a timeline meeting the deadline, the
// final visit order, and diagnostics about what was pruned along the way.
type PruneResult struct {
	Timeline *Timeline
	Ordered  []domain.Waypoint
	Removed  []domain.Waypoint
	Trace    []domain.PruningStep
	Attempts int
	Raw      json.RawMessage
}

// PruneToDeadline runs the optimize -> timeline -> deadline-check loop,
// greedily removing one prunable waypoint per failed iteration until the
// deadline holds or nothing prunable remains.
//
// The external optimizer has no notion of a deadline or of waypoint
// priority, so removal is a local heuristic: drop the prunable waypoint
// farthest from the start/end midpoint and re-optimize the rest. Mandatory
// waypoints are never removed. An unmeetable deadline yields
// *InfeasibleError with the overshoot; an exhausted attempt budget yields
// ErrOptimizationFailed.
func PruneToDeadline(
	ctx context.Context,
	req PruneRequest,
	optimizer ports.RouteOptimizer,
) (*PruneResult, error) {
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPruneAttempts
	}

	current := slices.Clone(req.Waypoints)
	var removed []domain.Waypoint
	var trace []domain.PruningStep

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		coords := make([]domain.Coordinates, len(current))
		for i, wp := range current {
			coords[i] = wp.Position
		}

		res, err := optimizer.OptimizeWaypoints(ctx, ports.OptimizeRequest{
			Origin:        req.StartPosition,
			Destination:   req.EndPosition,
			Waypoints:     coords,
			Mode:          req.Mode,
			PreserveOrder: req.PreserveOrder,
		})
		if err != nil {
			return nil, fmt.Errorf("prune to deadline: optimize attempt %d: %w", attempt, err)
		}

		ordered, err := applyWaypointOrder(current, res.WaypointOrder)
		if err != nil {
			return nil, fmt.Errorf("prune to deadline: attempt %d: %w", attempt, err)
		}

		tl, err := BuildTimeline(TimelineInput{
			StartName:                 req.StartName,
			StartAddress:              req.StartAddress,
			StartPosition:             req.StartPosition,
			StartTime:                 req.StartTime,
			EndName:                   req.EndName,
			EndAddress:                req.EndAddress,
			EndPosition:               req.EndPosition,
			Waypoints:                 ordered,
			Legs:                      res.Legs,
			DefaultVisitMinutes:       req.DefaultVisitMinutes,
			LunchBreakStartTime:       req.LunchBreakStartTime,
			LunchBreakDurationMinutes: req.LunchBreakDurationMinutes,
		})
		if err != nil {
			return nil, fmt.Errorf("prune to deadline: attempt %d: %w", attempt, err)
		}

		if !tl.EndsAt.After(req.Deadline) {
			return &PruneResult{
				Timeline: tl,
				Ordered:  ordered,
				Removed:  removed,
				Trace:    trace,
				Attempts: attempt,
				Raw:      res.Raw,
			}, nil
		}

		overshoot := int(math.Round(tl.EndsAt.Sub(req.Deadline).Minutes()))

		idx := farthestPrunable(current, req.StartPosition, req.EndPosition)
		if idx < 0 {
			return nil, &InfeasibleError{OvertimeMinutes: overshoot, Deadline: req.Deadline}
		}

		victim := current[idx]
		trace = append(trace, domain.PruningStep{
			Attempt:          attempt,
			RemovedName:      victim.Name,
			RemovedClientID:  victim.ClientID,
			OvershootMinutes: overshoot,
		})
		removed = append(removed, victim)
		current = append(current[:idx], current[idx+1:]...)
	}

	return nil, fmt.Errorf("prune to deadline: %w", ErrOptimizationFailed)
}

// farthestPrunable picks the non-mandatory waypoint farthest from the
// start/end midpoint. Flat lat/lng distance is fine here: this is a relative
// selection, not a geographic measurement. Returns -1 when nothing is
// prunable.
func farthestPrunable(wps []domain.Waypoint, start, end domain.Coordinates) int {
	mid := domain.Coordinates{
		Lat: (start.Lat + end.Lat) / 2,
		Lng: (start.Lng + end.Lng) / 2,
	}

	best := -1
	bestDist := -1.0
	for i, wp := range wps {
		if wp.IsMandatory {
			continue
		}
		d := geo.EuclideanDegrees(toGeoPoint(wp.Position), toGeoPoint(mid))
		if d > bestDist {
			best = i
			bestDist = d
		}
	}

	return best
}

// applyWaypointOrder reorders waypoints by the optimizer's permutation,
// rejecting anything that is not a valid permutation of the input indices.
func applyWaypointOrder(wps []domain.Waypoint, order []int) ([]domain.Waypoint, error) {
	if len(order) != len(wps) {
		return nil, fmt.Errorf("waypoint order has %d entries for %d waypoints", len(order), len(wps))
	}

	seen := make([]bool, len(wps))
	out := make([]domain.Waypoint, 0, len(wps))
	for _, idx := range order {
		if idx < 0 || idx >= len(wps) || seen[idx] {
			return nil, fmt.Errorf("waypoint order is not a permutation: index %d", idx)
		}
		seen[idx] = true
		out = append(out, wps[idx])
	}

	return out, nil
}
