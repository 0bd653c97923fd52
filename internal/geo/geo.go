package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// Point is a bare latitude/longitude pair used by the geometric helpers.
type Point struct {
	Lat float64
	Lng float64
}

// HaversineMeters returns the great-circle distance between two points in
// meters.
func HaversineMeters(a, b Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Midpoint returns the great-circle midpoint between two points.
func Midpoint(a, b Point) Point {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)

	mid := s2.Interpolate(0.5, s2.PointFromLatLng(p1), s2.PointFromLatLng(p2))
	midLatLng := s2.LatLngFromPoint(mid)

	return Point{Lat: midLatLng.Lat.Degrees(), Lng: midLatLng.Lng.Degrees()}
}

// PointToSegmentMeters returns the distance from p to the segment [a, b].
// The projection onto the segment happens in a local equirectangular plane
// centered on p and is clamped to the segment; the returned metric is
// haversine, which stays accurate at any latitude. A zero-length segment
// degenerates to the plain point distance.
func PointToSegmentMeters(p, a, b Point) float64 {
	latScale := math.Cos(p.Lat * math.Pi / 180)

	ax := (a.Lng - p.Lng) * latScale
	ay := a.Lat - p.Lat
	bx := (b.Lng - p.Lng) * latScale
	by := b.Lat - p.Lat

	dx := bx - ax
	dy := by - ay

	if dx == 0 && dy == 0 {
		return HaversineMeters(p, a)
	}

	// p sits at the local origin; project it onto the segment.
	t := -(ax*dx + ay*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	nearest := Point{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lng: a.Lng + t*(b.Lng-a.Lng),
	}

	return HaversineMeters(p, nearest)
}

// PointToPolylineMeters returns the distance from p to the nearest segment
// of the polyline. A closed polyline is expressed by repeating the first
// point at the end. A single-point polyline degenerates to point distance.
func PointToPolylineMeters(p Point, line []Point) float64 {
	if len(line) == 0 {
		return math.NaN()
	}
	if len(line) == 1 {
		return HaversineMeters(p, line[0])
	}

	min := math.MaxFloat64
	for i := 0; i < len(line)-1; i++ {
		if d := PointToSegmentMeters(p, line[i], line[i+1]); d < min {
			min = d
		}
	}

	return min
}

// EuclideanDegrees returns the flat lat/lng distance between two points.
// It is a heuristic for relative comparisons only, not a geographic metric.
func EuclideanDegrees(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}
