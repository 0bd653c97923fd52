package directions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", nil)
	require.NoError(t, err)
	c.baseURL = srv.URL

	return c, srv
}

func optimizeRequest(waypoints int) ports.OptimizeRequest {
	req := ports.OptimizeRequest{
		Origin:      domain.Coordinates{Lat: 48.85, Lng: 2.30},
		Destination: domain.Coordinates{Lat: 48.85, Lng: 2.38},
		Mode:        ports.ModeDriving,
	}
	for i := 0; i < waypoints; i++ {
		req.Waypoints = append(req.Waypoints, domain.Coordinates{Lat: 48.86, Lng: 2.31 + float64(i)/100})
	}
	return req
}

func TestOptimizeWaypointsParsesOrderAndLegs(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Contains(t, r.URL.Query().Get("waypoints"), "optimize:true|")

		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"waypoint_order": [1, 0],
				"legs": [
					{"distance": {"value": 3000}, "duration": {"value": 600, "text": "10 mins"}},
					{"distance": {"value": 2000}, "duration": {"value": 300, "text": "5 mins"}},
					{"distance": {"value": 4000}, "duration": {"value": 720}}
				]
			}]
		}`))
	}))

	res, err := c.OptimizeWaypoints(context.Background(), optimizeRequest(2))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, res.WaypointOrder)
	require.Len(t, res.Legs, 3)
	assert.Equal(t, 3000, res.Legs[0].DistanceMeters)
	assert.Equal(t, "10 mins", res.Legs[0].Duration)
	assert.Equal(t, "720s", res.Legs[2].Duration, "missing text falls back to the value in seconds")
	assert.NotEmpty(t, res.Raw, "the raw body is kept for audit metadata")
}

func TestOptimizeWaypointsIdentityOrderWhenAbsent(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotContains(t, r.URL.Query().Get("waypoints"), "optimize:true")
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"legs": [
					{"distance": {"value": 1000}, "duration": {"value": 60, "text": "1 min"}},
					{"distance": {"value": 1000}, "duration": {"value": 60, "text": "1 min"}},
					{"distance": {"value": 1000}, "duration": {"value": 60, "text": "1 min"}}
				]
			}]
		}`))
	}))

	req := optimizeRequest(2)
	req.PreserveOrder = true

	res, err := c.OptimizeWaypoints(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.WaypointOrder)
}

func TestOptimizeWaypointsMapsQuotaStatus(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "error_message": "quota exceeded"}`))
	}))

	_, err := c.OptimizeWaypoints(context.Background(), optimizeRequest(1))
	require.ErrorIs(t, err, ports.ErrRateLimited)
}

func TestOptimizeWaypointsMapsZeroResults(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS"}`))
	}))

	_, err := c.OptimizeWaypoints(context.Background(), optimizeRequest(1))
	require.ErrorIs(t, err, ports.ErrNoRoute)
}

func TestOptimizeWaypointsRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"legs": [
					{"distance": {"value": 1000}, "duration": {"value": 60, "text": "1 min"}},
					{"distance": {"value": 1000}, "duration": {"value": 60, "text": "1 min"}}
				]
			}]
		}`))
	}))

	_, err := c.OptimizeWaypoints(context.Background(), optimizeRequest(1))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOptimizeWaypointsDoesNotRetry429(t *testing.T) {
	var hits atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))

	_, err := c.OptimizeWaypoints(context.Background(), optimizeRequest(1))
	require.ErrorIs(t, err, ports.ErrRateLimited)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOptimizeWaypointsEnforcesLocationCap(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must be rejected before any HTTP call")
	}))

	_, err := c.OptimizeWaypoints(context.Background(), optimizeRequest(ports.MaxOptimizerLocations-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds cap")
}

func TestOptimizeWaypointsRejectsLegCountMismatch(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{"legs": [{"distance": {"value": 1000}, "duration": {"value": 60, "text": "1 min"}}]}]
		}`))
	}))

	_, err := c.OptimizeWaypoints(context.Background(), optimizeRequest(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legs")
}
