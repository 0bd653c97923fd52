package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"routemax-service/internal/api/dto"
	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
	"routemax-service/internal/services"
)

// RouteHandler orchestrates route construction and retrieval. It coordinates
// the repositories, the external optimizer and the geocoder behind their
// ports; the heavy lifting lives in the services package.
type RouteHandler struct {
	Clients   ports.ClientRepository
	Routes    ports.RouteRepository
	Optimizer ports.RouteOptimizer
	Geocoder  ports.Geocoder
}

// Collection dispatches /routes: POST builds a new route, GET lists the
// caller's saved routes.
func (h *RouteHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.build(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Detail serves /routes/{id}.
func (h *RouteHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := authUser(r)
	if !ok {
		writeErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authenticated user", nil)
		return
	}

	idPart := strings.TrimPrefix(r.URL.Path, "/routes/")
	routeID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || routeID <= 0 {
		writeErrorCode(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "route id must be a positive integer", nil)
		return
	}

	route, err := h.Routes.GetRoute(r.Context(), userID, routeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toRouteResponse(route, true))
}

func (h *RouteHandler) build(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(r)
	if !ok {
		writeErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authenticated user", nil)
		return
	}

	var req dto.BuildRouteRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	target, err := toTarget(req.Target)
	if err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), map[string]any{
			"field": "target",
		})
		return
	}

	svcReq := services.BuildRouteRequest{
		UserID: userID,
		Name:   req.Name,

		StartName:     req.Start.Name,
		StartAddress:  req.Start.Address,
		StartPosition: domain.Coordinates{Lat: req.Start.Lat, Lng: req.Start.Lng},
		StartDatetime: req.Start.Datetime,

		EndName:     req.End.Name,
		EndAddress:  req.End.Address,
		EndPosition: domain.Coordinates{Lat: req.End.Lat, Lng: req.End.Lng},
		EndDatetime: req.End.Datetime,

		Target: target,

		RadiusKm:       req.RadiusKm,
		MaxSuggestions: req.MaxSuggestions,

		DefaultVisitMinutes:       req.DefaultVisitMinutes,
		LunchBreakStartTime:       req.LunchBreakStartTime,
		LunchBreakDurationMinutes: req.LunchBreakDurationMinutes,

		VehicleType:        ports.TravelMode(req.VehicleType),
		OptimizationMethod: req.OptimizationMethod,
	}

	result, err := services.BuildRoute(r.Context(), svcReq, h.Clients, h.Optimizer, h.Routes, h.Geocoder)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.BuildRouteResponse{
		Route:       toRouteResponse(result.Route, true),
		Explanation: result.Explanation,
	}
	for _, ex := range result.ExcludedWaypoints {
		res.ExcludedWaypoints = append(res.ExcludedWaypoints, dto.ExcludedWaypointResponse{
			Name:     ex.Name,
			ClientID: ex.ClientID,
			Reason:   ex.Reason,
		})
	}

	writeJSON(w, r, http.StatusCreated, res)
}

func (h *RouteHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(r)
	if !ok {
		writeErrorCode(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authenticated user", nil)
		return
	}

	routes, err := h.Routes.ListRoutes(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, route := range routes {
		res.Routes = append(res.Routes, toRouteResponse(route, false))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// toTarget validates the tagged request shape: client_id and address are
// mutually exclusive, and exactly one must be present.
func toTarget(req dto.TargetRequest) (domain.Target, error) {
	hasClient := req.ClientID != 0
	hasAddress := strings.TrimSpace(req.Address) != ""

	switch {
	case hasClient && hasAddress:
		return domain.Target{}, errTargetShape
	case hasClient:
		return domain.ClientTarget(req.ClientID), nil
	case hasAddress:
		var pos domain.Coordinates
		if req.Lat != nil && req.Lng != nil {
			pos = domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
		}
		return domain.CustomAddressTarget(req.Address, pos), nil
	default:
		return domain.Target{}, errTargetShape
	}
}

var errTargetShape = errors.New("target must set exactly one of client_id or address")

func toRouteResponse(route *domain.Route, withStops bool) dto.RouteResponse {
	res := dto.RouteResponse{
		RouteID:                   route.RouteID,
		Name:                      route.Name,
		StartAddress:              route.StartAddress,
		StartLat:                  route.StartPosition.Lat,
		StartLng:                  route.StartPosition.Lng,
		StartDatetime:             route.StartDatetime,
		EndAddress:                route.EndAddress,
		EndLat:                    route.EndPosition.Lat,
		EndLng:                    route.EndPosition.Lng,
		EndDatetime:               route.EndDatetime,
		TotalDistanceKm:           route.TotalDistanceKm,
		TotalDurationMinutes:      route.TotalDurationMinutes,
		TotalVisits:               route.TotalVisits,
		LunchBreakStartTime:       route.LunchBreakStartTime,
		LunchBreakDurationMinutes: route.LunchBreakDurationMinutes,
		VehicleType:               route.VehicleType,
		OptimizationMethod:        route.OptimizationMethod,
		CreatedAt:                 route.CreatedAt,
	}

	if withStops {
		res.Stops = make([]dto.RouteStopResponse, 0, len(route.Stops))
		for _, s := range route.Stops {
			res.Stops = append(res.Stops, dto.RouteStopResponse{
				StopID:                      s.StopID,
				ClientID:                    s.ClientID,
				Name:                        s.Name,
				Address:                     s.Address,
				Lat:                         s.Position.Lat,
				Lng:                         s.Position.Lng,
				StopOrder:                   s.StopOrder,
				EstimatedArrival:            s.EstimatedArrival,
				EstimatedDeparture:          s.EstimatedDeparture,
				DurationFromPreviousMinutes: s.DurationFromPreviousMinutes,
				DistanceFromPreviousKm:      s.DistanceFromPreviousKm,
				VisitDurationMinutes:        s.VisitDurationMinutes,
				IsIncluded:                  s.IsIncluded,
				StopType:                    string(s.StopType),
			})
		}
	}

	return res
}
