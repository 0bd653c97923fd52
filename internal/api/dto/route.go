package dto

import "time"

type EndpointRequest struct {
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Datetime time.Time `json:"datetime"`
}

// TargetRequest is the tagged target variant: either client_id is set, or
// address (with optional coordinates) is set, never both.
type TargetRequest struct {
	ClientID int64    `json:"client_id,omitempty"`
	Address  string   `json:"address,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

type BuildRouteRequest struct {
	Name string `json:"name"`

	Start  EndpointRequest `json:"start"`
	End    EndpointRequest `json:"end"`
	Target TargetRequest   `json:"target"`

	RadiusKm       float64 `json:"radius_km"`
	MaxSuggestions int     `json:"max_suggestions"`

	DefaultVisitMinutes       int    `json:"default_visit_minutes"`
	LunchBreakStartTime       string `json:"lunch_break_start_time"`
	LunchBreakDurationMinutes int    `json:"lunch_break_duration_minutes"`

	VehicleType        string `json:"vehicle_type"`
	OptimizationMethod string `json:"optimization_method"`
}

type RouteStopResponse struct {
	StopID                      int64     `json:"stop_id"`
	ClientID                    int64     `json:"client_id,omitempty"`
	Name                        string    `json:"name"`
	Address                     string    `json:"address"`
	Lat                         float64   `json:"lat"`
	Lng                         float64   `json:"lng"`
	StopOrder                   int       `json:"stop_order"`
	EstimatedArrival            time.Time `json:"estimated_arrival"`
	EstimatedDeparture          time.Time `json:"estimated_departure"`
	DurationFromPreviousMinutes int       `json:"duration_from_previous_minutes"`
	DistanceFromPreviousKm      float64   `json:"distance_from_previous_km"`
	VisitDurationMinutes        int       `json:"visit_duration_minutes"`
	IsIncluded                  bool      `json:"is_included"`
	StopType                    string    `json:"stop_type"`
}

type RouteResponse struct {
	RouteID                   int64               `json:"route_id"`
	Name                      string              `json:"name"`
	StartAddress              string              `json:"start_address"`
	StartLat                  float64             `json:"start_lat"`
	StartLng                  float64             `json:"start_lng"`
	StartDatetime             time.Time           `json:"start_datetime"`
	EndAddress                string              `json:"end_address"`
	EndLat                    float64             `json:"end_lat"`
	EndLng                    float64             `json:"end_lng"`
	EndDatetime               time.Time           `json:"end_datetime"`
	TotalDistanceKm           float64             `json:"total_distance_km"`
	TotalDurationMinutes      int                 `json:"total_duration_minutes"`
	TotalVisits               int                 `json:"total_visits"`
	LunchBreakStartTime       string              `json:"lunch_break_start_time,omitempty"`
	LunchBreakDurationMinutes int                 `json:"lunch_break_duration_minutes,omitempty"`
	VehicleType               string              `json:"vehicle_type"`
	OptimizationMethod        string              `json:"optimization_method"`
	CreatedAt                 time.Time           `json:"created_at"`
	Stops                     []RouteStopResponse `json:"stops,omitempty"`
}

type ExcludedWaypointResponse struct {
	Name     string `json:"name"`
	ClientID int64  `json:"client_id,omitempty"`
	Reason   string `json:"reason"`
}

type BuildRouteResponse struct {
	Route             RouteResponse              `json:"route"`
	ExcludedWaypoints []ExcludedWaypointResponse `json:"excluded_waypoints,omitempty"`
	Explanation       string                     `json:"explanation,omitempty"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}
