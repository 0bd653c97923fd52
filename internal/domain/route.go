package domain

import (
	"encoding/json"
	"time"
)

// StopType classifies a stop within a route.
type StopType string

const (
	StopTypeStart      StopType = "start"
	StopTypeClient     StopType = "client"
	StopTypeTarget     StopType = "target"
	StopTypeLunchBreak StopType = "lunch_break"
	StopTypeEnd        StopType = "end"
)

// Represents a single stop in a constructed route.
// A RouteStop corresponds to arriving at a specific place at a computed time.
// IsIncluded=false marks a stop that was computed but excluded from the
// usable itinerary (arrival outside the client's opening hours); it is still
// persisted for transparency and contributes no visit time downstream.
type RouteStop struct {
	StopID                      int64
	RouteID                     int64
	ClientID                    int64 // 0 when not backed by a client row
	Name                        string
	Address                     string
	Position                    Coordinates
	StopOrder                   int
	EstimatedArrival            time.Time
	EstimatedDeparture          time.Time
	DurationFromPreviousMinutes int
	DistanceFromPreviousKm      float64
	VisitDurationMinutes        int
	IsIncluded                  bool
	StopType                    StopType
}

// PruningStep records one pruning iteration for the audit trail.
type PruningStep struct {
	Attempt          int    `json:"attempt"`
	RemovedName      string `json:"removed_name"`
	RemovedClientID  int64  `json:"removed_client_id,omitempty"`
	OvershootMinutes int    `json:"overshoot_minutes"`
}

// OptimizationMetadata preserves the raw optimizer response together with
// exclusion counts and pruning diagnostics for audit and replay.
type OptimizationMetadata struct {
	RawResponse         json.RawMessage `json:"raw_response,omitempty"`
	Attempts            int             `json:"attempts"`
	SkippedOutsideHours int             `json:"skipped_outside_hours"`
	ExcludedByPruning   int             `json:"excluded_by_pruning"`
	PruningTrace        []PruningStep   `json:"pruning_trace,omitempty"`
}

// Represents the planned visit sequence for one route-construction call.
// A Route is the output of the construction pipeline and is immutable once
// persisted; a retry produces a brand-new Route row.
type Route struct {
	RouteID                   int64
	UserID                    string
	Name                      string
	StartAddress              string
	StartPosition             Coordinates
	StartDatetime             time.Time
	EndAddress                string
	EndPosition               Coordinates
	EndDatetime               time.Time
	TotalDistanceKm           float64
	TotalDurationMinutes      int
	TotalVisits               int
	LunchBreakStartTime       string // "HH:MM", empty when no break configured
	LunchBreakDurationMinutes int
	VehicleType               string
	OptimizationMethod        string
	Metadata                  OptimizationMetadata
	CreatedAt                 time.Time
	Stops                     []RouteStop
}
