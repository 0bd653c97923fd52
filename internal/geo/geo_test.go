package geo

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}
	london := Point{Lat: 51.5074, Lng: -0.1278}

	d := HaversineMeters(paris, london)
	// Known great-circle distance, roughly 343.5 km.
	if d < 340000 || d > 348000 {
		t.Fatalf("Paris-London distance = %.0f m, want ~343500", d)
	}

	if got := HaversineMeters(paris, paris); got != 0 {
		t.Fatalf("self distance = %f, want 0", got)
	}
}

func TestHaversineMetersLatitudeOffset(t *testing.T) {
	// One degree of latitude is ~111.195 km regardless of longitude.
	a := Point{Lat: 48.0, Lng: 2.0}
	b := Point{Lat: 49.0, Lng: 2.0}

	d := HaversineMeters(a, b)
	if math.Abs(d-111195) > 100 {
		t.Fatalf("1 degree latitude = %.0f m, want ~111195", d)
	}
}

func TestPointToSegmentPerpendicular(t *testing.T) {
	// Equator segment, point 0.01 deg north of its middle.
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 0, Lng: 0.02}
	p := Point{Lat: 0.01, Lng: 0.01}

	d := PointToSegmentMeters(p, a, b)
	want := HaversineMeters(p, Point{Lat: 0, Lng: 0.01})
	if math.Abs(d-want) > 1 {
		t.Fatalf("perpendicular distance = %.2f m, want %.2f", d, want)
	}
}

func TestPointToSegmentClamped(t *testing.T) {
	// Point past the end of the segment must clamp to the endpoint.
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 0, Lng: 0.01}
	p := Point{Lat: 0, Lng: 0.03}

	d := PointToSegmentMeters(p, a, b)
	want := HaversineMeters(p, b)
	if math.Abs(d-want) > 0.1 {
		t.Fatalf("clamped distance = %.2f m, want %.2f", d, want)
	}
}

func TestPointToSegmentZeroLength(t *testing.T) {
	a := Point{Lat: 48.8566, Lng: 2.3522}
	p := Point{Lat: 48.9, Lng: 2.4}

	d := PointToSegmentMeters(p, a, a)
	want := HaversineMeters(p, a)
	if d != want {
		t.Fatalf("zero-length segment distance = %f, want %f", d, want)
	}
}

func TestPointToPolyline(t *testing.T) {
	line := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.02},
		{Lat: 0.02, Lng: 0.02},
	}
	p := Point{Lat: 0.005, Lng: 0.021}

	d := PointToPolylineMeters(p, line)
	// Nearest segment is the vertical one at lng 0.02.
	want := HaversineMeters(p, Point{Lat: 0.005, Lng: 0.02})
	if math.Abs(d-want) > 1 {
		t.Fatalf("polyline distance = %.2f m, want %.2f", d, want)
	}

	single := PointToPolylineMeters(p, line[:1])
	if math.Abs(single-HaversineMeters(p, line[0])) > 0.01 {
		t.Fatalf("single-point polyline should degrade to point distance")
	}
}

func TestMidpoint(t *testing.T) {
	a := Point{Lat: 48.0, Lng: 2.0}
	b := Point{Lat: 50.0, Lng: 2.0}

	mid := Midpoint(a, b)
	if math.Abs(mid.Lat-49.0) > 0.001 || math.Abs(mid.Lng-2.0) > 0.001 {
		t.Fatalf("midpoint = %+v, want {49, 2}", mid)
	}
}
