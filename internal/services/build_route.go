package services

import (
	"context"
	"fmt"
	"time"

	"routemax-service/internal/domain"
	"routemax-service/internal/platform/obs"
	"routemax-service/internal/ports"
)

// OptimizationMethod values accepted by BuildRoute.
const (
	OptimizationExternal = "external" // paid optimizer reorders the stops
	OptimizationNone     = "none"     // preserve corridor order, no optimization
)

// BuildRouteRequest is one full route-construction call.
type BuildRouteRequest struct {
	UserID string
	Name   string

	StartName     string
	StartAddress  string
	StartPosition domain.Coordinates
	StartDatetime time.Time

	EndName     string
	EndAddress  string
	EndPosition domain.Coordinates
	// EndDatetime is the hard return-time deadline.
	EndDatetime time.Time

	Target domain.Target

	RadiusKm       float64
	MaxSuggestions int

	DefaultVisitMinutes       int
	LunchBreakStartTime       string
	LunchBreakDurationMinutes int

	VehicleType        ports.TravelMode
	OptimizationMethod string
	MaxAttempts        int
}

// ExcludedWaypoint reports a candidate that did not make it into the usable
// itinerary, with the reason.
type ExcludedWaypoint struct {
	Name     string `json:"name"`
	ClientID int64  `json:"client_id,omitempty"`
	Reason   string `json:"reason"`
}

// BuildRouteResult carries the persisted route plus warnings about pruning
// and opening-hours exclusions for the caller to display.
type BuildRouteResult struct {
	Route             *domain.Route
	ExcludedWaypoints []ExcludedWaypoint
	Explanation       string
}

// BuildRoute runs the whole pipeline: corridor filter, target resolution,
// deadline-constrained optimization, and persistence. It coordinates the
// repositories and the external optimizer behind their ports; all state is
// request-local.
func BuildRoute(
	ctx context.Context,
	req BuildRouteRequest,
	clients ports.ClientRepository,
	optimizer ports.RouteOptimizer,
	routes ports.RouteRepository,
	geocoder ports.Geocoder,
) (_ *BuildRouteResult, err error) {
	defer obs.Time(ctx, "services.BuildRoute")(&err)

	if err := validateBuildRouteRequest(&req); err != nil {
		return nil, err
	}

	mandatory, err := resolveTarget(ctx, req, clients, geocoder)
	if err != nil {
		return nil, err
	}

	candidates, err := FilterCorridor(ctx, CorridorRequest{
		Anchors:        []domain.Coordinates{req.StartPosition, mandatory.Position, req.EndPosition},
		RadiusKm:       req.RadiusKm,
		MaxSuggestions: req.MaxSuggestions,
	}, req.UserID, clients)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}

	waypoints := assembleWaypoints(mandatory, candidates)

	pruned, err := PruneToDeadline(ctx, PruneRequest{
		StartName:                 req.StartName,
		StartAddress:              req.StartAddress,
		StartPosition:             req.StartPosition,
		StartTime:                 req.StartDatetime,
		EndName:                   req.EndName,
		EndAddress:                req.EndAddress,
		EndPosition:               req.EndPosition,
		Deadline:                  req.EndDatetime,
		Waypoints:                 waypoints,
		Mode:                      req.VehicleType,
		PreserveOrder:             req.OptimizationMethod == OptimizationNone,
		MaxAttempts:               req.MaxAttempts,
		DefaultVisitMinutes:       req.DefaultVisitMinutes,
		LunchBreakStartTime:       req.LunchBreakStartTime,
		LunchBreakDurationMinutes: req.LunchBreakDurationMinutes,
	}, optimizer)
	if err != nil {
		return nil, fmt.Errorf("build route: %w", err)
	}

	route := assembleRoute(req, pruned)

	saved, err := routes.SaveRoute(ctx, route)
	if err != nil {
		return nil, fmt.Errorf("build route: persist: %w", err)
	}

	return &BuildRouteResult{
		Route:             saved,
		ExcludedWaypoints: collectExclusions(pruned),
		Explanation:       explain(pruned),
	}, nil
}

func validateBuildRouteRequest(req *BuildRouteRequest) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "missing authenticated user"}
	}
	if !req.StartPosition.Valid() || req.StartPosition.IsZero() {
		return &ValidationError{Field: "start", Reason: "invalid start coordinates"}
	}
	if !req.EndPosition.Valid() || req.EndPosition.IsZero() {
		return &ValidationError{Field: "end", Reason: "invalid end coordinates"}
	}
	if req.StartDatetime.IsZero() {
		return &ValidationError{Field: "start_datetime", Reason: "required"}
	}
	if !req.EndDatetime.After(req.StartDatetime) {
		return &ValidationError{Field: "end_datetime", Reason: "deadline must be after the start"}
	}
	if err := req.Target.Validate(); err != nil {
		return &ValidationError{Field: "target", Reason: err.Error()}
	}
	if req.LunchBreakStartTime != "" {
		if _, err := parseTimeOfDay(req.LunchBreakStartTime); err != nil {
			return &ValidationError{Field: "lunch_break_start_time", Reason: "must be HH:MM"}
		}
	}

	if req.VehicleType == "" {
		req.VehicleType = ports.ModeDriving
	}
	if !req.VehicleType.Valid() {
		return &ValidationError{Field: "vehicle_type", Reason: "must be driving, bicycling or walking"}
	}
	if req.OptimizationMethod == "" {
		req.OptimizationMethod = OptimizationExternal
	}
	if req.OptimizationMethod != OptimizationExternal && req.OptimizationMethod != OptimizationNone {
		return &ValidationError{Field: "optimization_method", Reason: "must be external or none"}
	}
	if req.RadiusKm <= 0 {
		return &ValidationError{Field: "radius_km", Reason: "must be positive"}
	}
	return nil
}

// resolveTarget turns the tagged target variant into the mandatory waypoint,
// checking ownership for client targets and geocoding custom addresses that
// arrive without coordinates.
func resolveTarget(
	ctx context.Context,
	req BuildRouteRequest,
	clients ports.ClientRepository,
	geocoder ports.Geocoder,
) (domain.Waypoint, error) {
	switch req.Target.Kind {
	case domain.TargetClient:
		owned, err := clients.GetClientsByID(ctx, req.UserID, []int64{req.Target.ClientID})
		if err != nil {
			return domain.Waypoint{}, fmt.Errorf("build route: resolve target client: %w", err)
		}
		c, ok := owned[req.Target.ClientID]
		if !ok {
			return domain.Waypoint{}, fmt.Errorf("build route: client %d: %w", req.Target.ClientID, ErrNotOwned)
		}
		return domain.Waypoint{
			ClientID:    c.ClientID,
			Name:        c.Name,
			Address:     c.Address,
			Position:    c.Position,
			IsMandatory: true,
			OpeningTime: c.OpeningTime,
			ClosingTime: c.ClosingTime,
		}, nil

	case domain.TargetCustomAddress:
		pos := req.Target.Position
		if pos.IsZero() {
			if geocoder == nil {
				return domain.Waypoint{}, &ValidationError{Field: "target", Reason: "custom address requires coordinates"}
			}
			resolved, err := geocoder.Geocode(ctx, req.Target.Address)
			if err != nil {
				return domain.Waypoint{}, fmt.Errorf("build route: geocode target: %w", err)
			}
			pos = resolved
		}
		if !pos.Valid() {
			return domain.Waypoint{}, &ValidationError{Field: "target", Reason: "invalid target coordinates"}
		}
		return domain.Waypoint{
			Name:        req.Target.Address,
			Address:     req.Target.Address,
			Position:    pos,
			IsMandatory: true,
		}, nil
	}

	return domain.Waypoint{}, &ValidationError{Field: "target", Reason: "unknown target kind"}
}

// assembleWaypoints combines the mandatory target with the corridor
// prospects, dropping the target's own client row from the prospect list and
// truncating the lowest-scored prospects to stay under the optimizer's
// location cap.
func assembleWaypoints(mandatory domain.Waypoint, candidates []CorridorCandidate) []domain.Waypoint {
	out := make([]domain.Waypoint, 0, len(candidates)+1)
	out = append(out, mandatory)

	// Origin, destination and the mandatory stop are already spoken for.
	budget := ports.MaxOptimizerLocations - 3

	for _, cand := range candidates {
		if budget == 0 {
			break
		}
		if mandatory.ClientID != 0 && cand.Client.ClientID == mandatory.ClientID {
			continue
		}
		out = append(out, domain.Waypoint{
			ClientID:    cand.Client.ClientID,
			Name:        cand.Client.Name,
			Address:     cand.Client.Address,
			Position:    cand.Client.Position,
			OpeningTime: cand.Client.OpeningTime,
			ClosingTime: cand.Client.ClosingTime,
		})
		budget--
	}

	return out
}

func assembleRoute(req BuildRouteRequest, pruned *PruneResult) *domain.Route {
	tl := pruned.Timeline

	return &domain.Route{
		UserID:                    req.UserID,
		Name:                      req.Name,
		StartAddress:              req.StartAddress,
		StartPosition:             req.StartPosition,
		StartDatetime:             req.StartDatetime,
		EndAddress:                req.EndAddress,
		EndPosition:               req.EndPosition,
		EndDatetime:               req.EndDatetime,
		TotalDistanceKm:           tl.TotalDistanceKm,
		TotalDurationMinutes:      tl.TotalDurationMinutes,
		TotalVisits:               tl.TotalVisits,
		LunchBreakStartTime:       req.LunchBreakStartTime,
		LunchBreakDurationMinutes: req.LunchBreakDurationMinutes,
		VehicleType:               string(req.VehicleType),
		OptimizationMethod:        req.OptimizationMethod,
		Metadata: domain.OptimizationMetadata{
			RawResponse:         pruned.Raw,
			Attempts:            pruned.Attempts,
			SkippedOutsideHours: tl.SkippedOutsideHours,
			ExcludedByPruning:   len(pruned.Removed),
			PruningTrace:        pruned.Trace,
		},
		Stops: tl.Stops,
	}
}

func collectExclusions(pruned *PruneResult) []ExcludedWaypoint {
	var out []ExcludedWaypoint
	for _, wp := range pruned.Removed {
		out = append(out, ExcludedWaypoint{
			Name:     wp.Name,
			ClientID: wp.ClientID,
			Reason:   "pruned_deadline",
		})
	}
	for _, s := range pruned.Timeline.Stops {
		if !s.IsIncluded {
			out = append(out, ExcludedWaypoint{
				Name:     s.Name,
				ClientID: s.ClientID,
				Reason:   "outside_opening_hours",
			})
		}
	}
	return out
}

func explain(pruned *PruneResult) string {
	removed := len(pruned.Removed)
	skipped := pruned.Timeline.SkippedOutsideHours
	if removed == 0 && skipped == 0 {
		return ""
	}

	msg := ""
	if removed > 0 {
		msg = fmt.Sprintf("%d stop(s) removed to meet the return deadline", removed)
	}
	if skipped > 0 {
		if msg != "" {
			msg += "; "
		}
		msg += fmt.Sprintf("%d stop(s) fall outside opening hours and add no visit time", skipped)
	}
	return msg
}
