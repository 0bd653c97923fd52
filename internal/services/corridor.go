package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"routemax-service/internal/domain"
	"routemax-service/internal/geo"
	"routemax-service/internal/ports"
)

const (
	// Start and end anchors closer than this are treated as the same
	// point, turning the corridor path into a closed loop.
	loopToleranceMeters = 11.0

	// DefaultMaxSuggestions caps the candidate list returned to callers.
	DefaultMaxSuggestions = 20
)

// CorridorCandidate is a client annotated with its perpendicular distance to
// the route path and a 0-100 proximity score.
type CorridorCandidate struct {
	Client         *domain.Client
	DistanceMeters float64
	Score          int
}

// CorridorRequest describes a corridor lookup around a planned route path.
// Anchors are the ordered points the route passes through: start, mandatory
// stop(s), end.
type CorridorRequest struct {
	Anchors        []domain.Coordinates
	RadiusKm       float64
	MaxSuggestions int
}

// FilterCorridor returns the caller's active clients lying within RadiusKm
// of the route path, scored by proximity and sorted best first.
//
// When the repository supports a spatial-index-backed bounding query it is
// used to narrow the scan; any failure there falls back to loading all
// active clients and running the same point-to-segment math in-process, so
// both paths produce equivalent results.
func FilterCorridor(
	ctx context.Context,
	req CorridorRequest,
	userID string,
	repo ports.ClientRepository,
) ([]CorridorCandidate, error) {
	if err := validateCorridorRequest(req); err != nil {
		return nil, err
	}

	var clients []*domain.Client

	if cr, ok := repo.(ports.CorridorClientRepository); ok {
		bounded, err := cr.ListClientsInBounds(ctx, userID, corridorBounds(req.Anchors, req.RadiusKm))
		if err != nil {
			log.Printf("corridor bounds query failed, falling back to full scan: %v", err)
		} else {
			clients = bounded
		}
	}

	if clients == nil {
		all, err := repo.ListActiveClients(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("corridor filter: list active clients: %w", err)
		}
		clients = all
	}

	return ScoreCandidates(req.Anchors, req.RadiusKm, req.MaxSuggestions, clients), nil
}

// ScoreCandidates is the pure in-process corridor computation. It measures
// each client's distance to the route path (closed loop when start and end
// coincide), drops clients beyond the radius, and scores the rest by
// max(0, 100 - distance/radius*100), rounded.
//
// For a fixed path and radius the result is deterministic: sorted by score
// descending, ties broken by distance then client id.
func ScoreCandidates(
	anchors []domain.Coordinates,
	radiusKm float64,
	maxSuggestions int,
	clients []*domain.Client,
) []CorridorCandidate {
	line := corridorPolyline(anchors)
	radiusM := radiusKm * 1000

	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	out := make([]CorridorCandidate, 0, len(clients))
	for _, c := range clients {
		if !c.IsActive {
			continue
		}

		d := geo.PointToPolylineMeters(toGeoPoint(c.Position), line)
		if d > radiusM {
			continue
		}

		score := int(math.Round(math.Max(0, 100-(d/radiusM)*100)))
		out = append(out, CorridorCandidate{Client: c, DistanceMeters: d, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].Client.ClientID < out[j].Client.ClientID
	})

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}

	return out
}

func validateCorridorRequest(req CorridorRequest) error {
	if len(req.Anchors) < 2 {
		return &ValidationError{Field: "anchors", Reason: "at least start and end are required"}
	}
	for i, a := range req.Anchors {
		if !a.Valid() {
			return &ValidationError{Field: "anchors", Reason: fmt.Sprintf("anchor %d has invalid coordinates", i)}
		}
	}
	if req.RadiusKm <= 0 || math.IsNaN(req.RadiusKm) {
		return &ValidationError{Field: "radius_km", Reason: "must be positive"}
	}
	return nil
}

// corridorPolyline builds the path candidates are measured against. When
// start and end coincide the path closes back on the first anchor so the
// whole loop is covered.
func corridorPolyline(anchors []domain.Coordinates) []geo.Point {
	line := make([]geo.Point, 0, len(anchors)+1)
	for _, a := range anchors {
		line = append(line, toGeoPoint(a))
	}

	first := anchors[0]
	last := anchors[len(anchors)-1]
	if geo.HaversineMeters(toGeoPoint(first), toGeoPoint(last)) <= loopToleranceMeters && len(anchors) > 2 {
		line = append(line, toGeoPoint(first))
	}

	return line
}

// corridorBounds expands the anchors' bounding box by the corridor radius.
func corridorBounds(anchors []domain.Coordinates, radiusKm float64) ports.CorridorBounds {
	minLat, maxLat := anchors[0].Lat, anchors[0].Lat
	minLng, maxLng := anchors[0].Lng, anchors[0].Lng
	for _, a := range anchors[1:] {
		minLat = math.Min(minLat, a.Lat)
		maxLat = math.Max(maxLat, a.Lat)
		minLng = math.Min(minLng, a.Lng)
		maxLng = math.Max(maxLng, a.Lng)
	}

	latPad := radiusKm / 111.195
	midLat := (minLat + maxLat) / 2
	lngScale := math.Cos(midLat * math.Pi / 180)
	if lngScale < 0.01 {
		lngScale = 0.01
	}
	lngPad := latPad / lngScale

	return ports.CorridorBounds{
		MinLat: minLat - latPad,
		MaxLat: maxLat + latPad,
		MinLng: minLng - lngPad,
		MaxLng: maxLng + lngPad,
	}
}

func toGeoPoint(c domain.Coordinates) geo.Point {
	return geo.Point{Lat: c.Lat, Lng: c.Lng}
}
