package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"routemax-service/internal/platform/obs"
	"routemax-service/internal/ports"
)

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int    `json:"value"`
				Text  string `json:"text"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// OptimizeWaypoints asks the Directions service for a travel-time-optimized
// visit order over the intermediate waypoints, or for the input order when
// PreserveOrder is set (no optimization, cheaper call). The raw response
// body is kept for the route's audit metadata.
func (c *Client) OptimizeWaypoints(
	ctx context.Context,
	req ports.OptimizeRequest,
) (_ ports.OptimizeResult, err error) {
	defer obs.Time(ctx, "directions.OptimizeWaypoints")(&err)

	if !req.Origin.Valid() || !req.Destination.Valid() {
		return ports.OptimizeResult{}, fmt.Errorf("optimize waypoints: invalid origin or destination")
	}
	if total := 2 + len(req.Waypoints); total > ports.MaxOptimizerLocations {
		return ports.OptimizeResult{}, fmt.Errorf(
			"optimize waypoints: %d locations exceeds cap of %d",
			total, ports.MaxOptimizerLocations,
		)
	}

	mode := req.Mode
	if mode == "" {
		mode = ports.ModeDriving
	}

	q := url.Values{}
	q.Set("origin", req.Origin.LatLng())
	q.Set("destination", req.Destination.LatLng())
	q.Set("mode", string(mode))
	if len(req.Waypoints) > 0 {
		parts := make([]string, 0, len(req.Waypoints)+1)
		if !req.PreserveOrder {
			parts = append(parts, "optimize:true")
		}
		for _, wp := range req.Waypoints {
			parts = append(parts, wp.LatLng())
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}

	body, err := c.get(ctx, "/directions/json", q)
	if err != nil {
		return ports.OptimizeResult{}, fmt.Errorf("optimize waypoints: %w", err)
	}

	var decoded directionsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ports.OptimizeResult{}, fmt.Errorf("optimize waypoints: decode response: %w", err)
	}

	switch decoded.Status {
	case "OK":
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return ports.OptimizeResult{}, fmt.Errorf("%w: %s", ports.ErrRateLimited, decoded.ErrorMessage)
	case "ZERO_RESULTS", "NOT_FOUND":
		return ports.OptimizeResult{}, fmt.Errorf("%w: %s", ports.ErrNoRoute, decoded.ErrorMessage)
	default:
		return ports.OptimizeResult{}, fmt.Errorf(
			"optimize waypoints: status %s: %s", decoded.Status, decoded.ErrorMessage,
		)
	}

	if len(decoded.Routes) == 0 {
		return ports.OptimizeResult{}, fmt.Errorf("optimize waypoints: %w", ports.ErrNoRoute)
	}
	route := decoded.Routes[0]

	if len(route.Legs) != len(req.Waypoints)+1 {
		return ports.OptimizeResult{}, fmt.Errorf(
			"optimize waypoints: got %d legs for %d waypoints",
			len(route.Legs), len(req.Waypoints),
		)
	}

	// The waypoint order is only present when the service reordered; an
	// absent order means input order.
	order := route.WaypointOrder
	if len(order) == 0 {
		order = make([]int, len(req.Waypoints))
		for i := range order {
			order[i] = i
		}
	}
	if len(order) != len(req.Waypoints) {
		return ports.OptimizeResult{}, fmt.Errorf(
			"optimize waypoints: got %d order entries for %d waypoints",
			len(order), len(req.Waypoints),
		)
	}

	legs := make([]ports.Leg, 0, len(route.Legs))
	for _, l := range route.Legs {
		duration := l.Duration.Text
		if duration == "" {
			duration = fmt.Sprintf("%ds", l.Duration.Value)
		}
		legs = append(legs, ports.Leg{
			DistanceMeters: l.Distance.Value,
			Duration:       duration,
		})
	}

	return ports.OptimizeResult{
		WaypointOrder: order,
		Legs:          legs,
		Raw:           json.RawMessage(body),
	}, nil
}
