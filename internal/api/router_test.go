package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
)

var testSecret = []byte("test-secret")

type stubClients struct{ clients []*domain.Client }

func (s *stubClients) ListActiveClients(ctx context.Context, userID string) ([]*domain.Client, error) {
	var out []*domain.Client
	for _, c := range s.clients {
		if c.UserID == userID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubClients) GetClientsByID(ctx context.Context, userID string, ids []int64) (map[int64]*domain.Client, error) {
	out := map[int64]*domain.Client{}
	for _, c := range s.clients {
		for _, id := range ids {
			if c.ClientID == id && c.UserID == userID {
				out[id] = c
			}
		}
	}
	return out, nil
}

type stubRoutes struct{ routes []*domain.Route }

func (s *stubRoutes) SaveRoute(ctx context.Context, route *domain.Route) (*domain.Route, error) {
	route.RouteID = int64(len(s.routes) + 1)
	s.routes = append(s.routes, route)
	return route, nil
}

func (s *stubRoutes) ListRoutes(ctx context.Context, userID string) ([]*domain.Route, error) {
	var out []*domain.Route
	for _, r := range s.routes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRoutes) GetRoute(ctx context.Context, userID string, routeID int64) (*domain.Route, error) {
	for _, r := range s.routes {
		if r.UserID == userID && r.RouteID == routeID {
			return r, nil
		}
	}
	return nil, ports.ErrRouteNotFound
}

type stubOptimizer struct{}

func (stubOptimizer) OptimizeWaypoints(ctx context.Context, req ports.OptimizeRequest) (ports.OptimizeResult, error) {
	order := make([]int, len(req.Waypoints))
	legs := make([]ports.Leg, len(req.Waypoints)+1)
	for i := range order {
		order[i] = i
	}
	for i := range legs {
		legs[i] = ports.Leg{DistanceMeters: 1000, Duration: "300s"}
	}
	return ports.OptimizeResult{WaypointOrder: order, Legs: legs, Raw: []byte(`{}`)}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	return domain.Coordinates{Lat: 48.86, Lng: 2.35}, nil
}

func testRouter() http.Handler {
	clients := &stubClients{clients: []*domain.Client{
		{ClientID: 1, UserID: "u1", Name: "Acme", Address: "1 Rue A", Position: domain.Coordinates{Lat: 48.85, Lng: 2.34}, IsActive: true},
		{ClientID: 2, UserID: "u2", Name: "Other", Address: "2 Rue B", Position: domain.Coordinates{Lat: 48.86, Lng: 2.35}, IsActive: true},
	}}
	return NewRouter(clients, &stubRoutes{}, stubOptimizer{}, stubGeocoder{}, testSecret)
}

func bearerToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestHealthIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	router := testRouter()

	for _, path := range []string{"/clients", "/routes", "/corridor/suggestions"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenWithWrongSecretIsRejected(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	testRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListClientsScopedToTokenSubject(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	testRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Clients []struct {
			ClientID int64  `json:"client_id"`
			Name     string `json:"name"`
		} `json:"clients"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Clients, 1, "only the subject's clients are visible")
	assert.Equal(t, "Acme", body.Clients[0].Name)
}

func TestGetRouteValidation(t *testing.T) {
	router := testRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/routes/abc", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/routes/999", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestBuildRouteOverHTTP(t *testing.T) {
	router := testRouter()

	payload := `{
		"name": "Monday loop",
		"start": {"name": "Office", "address": "1 Start Way", "lat": 48.85, "lng": 2.30, "datetime": "2026-03-02T09:00:00Z"},
		"end": {"name": "Office", "address": "1 Start Way", "lat": 48.85, "lng": 2.38, "datetime": "2026-03-02T17:00:00Z"},
		"target": {"client_id": 1},
		"radius_km": 2
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes", strings.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Route struct {
			RouteID int64 `json:"route_id"`
			Stops   []struct {
				StopType  string `json:"stop_type"`
				StopOrder int    `json:"stop_order"`
			} `json:"stops"`
		} `json:"route"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotZero(t, body.Route.RouteID)
	require.NotEmpty(t, body.Route.Stops)
	assert.Equal(t, "start", body.Route.Stops[0].StopType)
	assert.Equal(t, "end", body.Route.Stops[len(body.Route.Stops)-1].StopType)
}

func TestBuildRouteRejectsAmbiguousTarget(t *testing.T) {
	payload := `{
		"start": {"address": "1 Start Way", "lat": 48.85, "lng": 2.30, "datetime": "2026-03-02T09:00:00Z"},
		"end": {"address": "1 Start Way", "lat": 48.85, "lng": 2.38, "datetime": "2026-03-02T17:00:00Z"},
		"target": {"client_id": 1, "address": "5 Rue X"},
		"radius_km": 2
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/routes", strings.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, "u1"))
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
