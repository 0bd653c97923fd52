package services

import (
	"fmt"
	"math"
	"time"

	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
)

const (
	// Visiting window applied when a client has no recorded opening hours.
	DefaultOpeningTime = "09:00"
	DefaultClosingTime = "17:00"

	// DefaultVisitMinutes is the per-stop dwell time when the request
	// does not override it.
	DefaultVisitMinutes = 30
)

// TimelineInput describes one pass of timeline construction: the waypoints
// in visit order as returned by the optimizer, together with the per-leg
// travel metrics covering origin through every waypoint to the end point.
type TimelineInput struct {
	StartName     string
	StartAddress  string
	StartPosition domain.Coordinates
	StartTime     time.Time

	EndName     string
	EndAddress  string
	EndPosition domain.Coordinates

	Waypoints []domain.Waypoint
	Legs      []ports.Leg // len(Waypoints)+1

	DefaultVisitMinutes       int
	LunchBreakStartTime       string // "HH:MM", empty disables the break
	LunchBreakDurationMinutes int
}

// Timeline is the computed stop sequence with aggregate metrics.
// TotalDurationMinutes covers travel only, so it matches the sum of each
// stop's duration-from-previous within rounding tolerance.
type Timeline struct {
	Stops                []domain.RouteStop
	TotalDistanceKm      float64
	TotalDurationMinutes int
	TotalVisits          int
	SkippedOutsideHours  int
	EndsAt               time.Time
}

// BuildTimeline walks the waypoints in order, accumulating travel and visit
// time into arrival/departure timestamps per stop.
//
// Client stops whose arrival falls outside their opening window are marked
// excluded and contribute no dwell time downstream. When a lunch break is
// configured it is inserted once, after the stop whose arrival time-of-day
// is closest to the configured start, shifting all later stops by the break
// duration. Time accumulates as fractional minutes internally; persisted
// minutes are rounded only at stop boundaries.
func BuildTimeline(in TimelineInput) (*Timeline, error) {
	if len(in.Legs) != len(in.Waypoints)+1 {
		return nil, fmt.Errorf(
			"build timeline: got %d legs for %d waypoints, want %d",
			len(in.Legs), len(in.Waypoints), len(in.Waypoints)+1,
		)
	}

	visitMin := in.DefaultVisitMinutes
	if visitMin <= 0 {
		visitMin = DefaultVisitMinutes
	}

	stops := make([]domain.RouteStop, 0, len(in.Waypoints)+2)
	stops = append(stops, domain.RouteStop{
		Name:               in.StartName,
		Address:            in.StartAddress,
		Position:           in.StartPosition,
		StopOrder:          0,
		EstimatedArrival:   in.StartTime,
		EstimatedDeparture: in.StartTime,
		IsIncluded:         true,
		StopType:           domain.StopTypeStart,
	})

	clockMin := 0.0 // fractional minutes since StartTime
	totalTravelMin := 0.0
	totalKm := 0.0
	skipped := 0
	visits := 0

	for i, wp := range in.Waypoints {
		legMin, err := ParseLegDuration(in.Legs[i].Duration)
		if err != nil {
			return nil, fmt.Errorf("build timeline: leg %d: %w", i, err)
		}

		legKm := float64(in.Legs[i].DistanceMeters) / 1000
		clockMin += legMin
		totalTravelMin += legMin
		totalKm += legKm

		arrival := in.StartTime.Add(fracMinutes(clockMin))

		stopType := domain.StopTypeClient
		if wp.IsMandatory {
			stopType = domain.StopTypeTarget
		}

		included := true
		visit := visitMin
		if stopType == domain.StopTypeClient && !withinOpeningHours(arrival, wp.OpeningTime, wp.ClosingTime) {
			included = false
			visit = 0
			skipped++
		}
		if included {
			visits++
			clockMin += float64(visit)
		}

		stops = append(stops, domain.RouteStop{
			ClientID:                    wp.ClientID,
			Name:                        wp.Name,
			Address:                     wp.Address,
			Position:                    wp.Position,
			StopOrder:                   len(stops),
			EstimatedArrival:            arrival,
			EstimatedDeparture:          arrival.Add(time.Duration(visit) * time.Minute),
			DurationFromPreviousMinutes: int(math.Round(legMin)),
			DistanceFromPreviousKm:      round2(legKm),
			VisitDurationMinutes:        visit,
			IsIncluded:                  included,
			StopType:                    stopType,
		})
	}

	lastLeg := in.Legs[len(in.Legs)-1]
	legMin, err := ParseLegDuration(lastLeg.Duration)
	if err != nil {
		return nil, fmt.Errorf("build timeline: final leg: %w", err)
	}

	legKm := float64(lastLeg.DistanceMeters) / 1000
	clockMin += legMin
	totalTravelMin += legMin
	totalKm += legKm

	endArrival := in.StartTime.Add(fracMinutes(clockMin))
	stops = append(stops, domain.RouteStop{
		Name:                        in.EndName,
		Address:                     in.EndAddress,
		Position:                    in.EndPosition,
		StopOrder:                   len(stops),
		EstimatedArrival:            endArrival,
		EstimatedDeparture:          endArrival,
		DurationFromPreviousMinutes: int(math.Round(legMin)),
		DistanceFromPreviousKm:      round2(legKm),
		IsIncluded:                  true,
		StopType:                    domain.StopTypeEnd,
	})

	if in.LunchBreakStartTime != "" && in.LunchBreakDurationMinutes > 0 {
		stops, err = insertLunchBreak(stops, in.LunchBreakStartTime, in.LunchBreakDurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("build timeline: %w", err)
		}
	}

	return &Timeline{
		Stops:                stops,
		TotalDistanceKm:      round2(totalKm),
		TotalDurationMinutes: int(math.Round(totalTravelMin)),
		TotalVisits:          visits,
		SkippedOutsideHours:  skipped,
		EndsAt:               stops[len(stops)-1].EstimatedArrival,
	}, nil
}

// insertLunchBreak places a break stop after the visitable stop whose
// arrival time-of-day is closest to the configured start, then shifts every
// later stop by the break duration. First match wins on ties; with no
// visitable stop the break is silently omitted.
func insertLunchBreak(stops []domain.RouteStop, startHHMM string, durationMin int) ([]domain.RouteStop, error) {
	target, err := parseTimeOfDay(startHHMM)
	if err != nil {
		return nil, fmt.Errorf("lunch break start: %w", err)
	}

	bestIdx := -1
	bestDiff := 0.0
	for i, s := range stops {
		if s.StopType != domain.StopTypeClient && s.StopType != domain.StopTypeTarget {
			continue
		}
		diff := math.Abs(minutesOfDay(s.EstimatedArrival) - float64(target))
		if bestIdx == -1 || diff < bestDiff {
			bestIdx = i
			bestDiff = diff
		}
	}
	if bestIdx == -1 {
		return stops, nil
	}

	host := stops[bestIdx]
	breakStop := domain.RouteStop{
		Name:                 "Lunch break",
		Position:             host.Position,
		EstimatedArrival:     host.EstimatedDeparture,
		EstimatedDeparture:   host.EstimatedDeparture.Add(time.Duration(durationMin) * time.Minute),
		VisitDurationMinutes: durationMin,
		IsIncluded:           true,
		StopType:             domain.StopTypeLunchBreak,
	}

	shift := time.Duration(durationMin) * time.Minute

	out := make([]domain.RouteStop, 0, len(stops)+1)
	out = append(out, stops[:bestIdx+1]...)
	out = append(out, breakStop)
	for _, s := range stops[bestIdx+1:] {
		s.EstimatedArrival = s.EstimatedArrival.Add(shift)
		s.EstimatedDeparture = s.EstimatedDeparture.Add(shift)
		out = append(out, s)
	}

	for i := range out {
		out[i].StopOrder = i
	}

	return out, nil
}

// withinOpeningHours checks the arrival time-of-day against the client's
// window, falling back to the default 09:00-17:00 when unset.
func withinOpeningHours(arrival time.Time, opening, closing string) bool {
	if opening == "" {
		opening = DefaultOpeningTime
	}
	if closing == "" {
		closing = DefaultClosingTime
	}

	open, err := parseTimeOfDay(opening)
	if err != nil {
		return true
	}
	closeAt, err := parseTimeOfDay(closing)
	if err != nil {
		return true
	}

	m := minutesOfDay(arrival)
	return m >= float64(open) && m <= float64(closeAt)
}

func parseTimeOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesOfDay(t time.Time) float64 {
	return float64(t.Hour())*60 + float64(t.Minute()) + float64(t.Second())/60
}

func fracMinutes(min float64) time.Duration {
	return time.Duration(min * float64(time.Minute))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
