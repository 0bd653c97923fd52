package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routemax-service/internal/adapters/directions"
	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
)

type fakeRouteRepo struct {
	saved []*domain.Route
}

func (f *fakeRouteRepo) SaveRoute(ctx context.Context, route *domain.Route) (*domain.Route, error) {
	route.RouteID = int64(len(f.saved) + 1)
	route.CreatedAt = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := range route.Stops {
		route.Stops[i].StopID = int64(i + 1)
		route.Stops[i].RouteID = route.RouteID
	}
	f.saved = append(f.saved, route)
	return route, nil
}

func (f *fakeRouteRepo) ListRoutes(ctx context.Context, userID string) ([]*domain.Route, error) {
	return f.saved, nil
}

func (f *fakeRouteRepo) GetRoute(ctx context.Context, userID string, routeID int64) (*domain.Route, error) {
	for _, r := range f.saved {
		if r.RouteID == routeID {
			return r, nil
		}
	}
	return nil, ports.ErrRouteNotFound
}

type fakeGeocoder struct {
	coords domain.Coordinates
	calls  int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	f.calls++
	return f.coords, nil
}

func buildRouteFixture(target domain.Target) BuildRouteRequest {
	return BuildRouteRequest{
		UserID:        "u1",
		Name:          "Monday loop",
		StartName:     "Office",
		StartAddress:  "1 Start Way",
		StartPosition: domain.Coordinates{Lat: 48.85, Lng: 2.30},
		StartDatetime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndName:       "Office",
		EndAddress:    "1 Start Way",
		EndPosition:   domain.Coordinates{Lat: 48.85, Lng: 2.38},
		EndDatetime:   time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
		Target:        target,
		RadiusKm:      2.0,
	}
}

func TestBuildRouteEndToEnd(t *testing.T) {
	clients := &stubClientRepo{clients: corridorClients()}
	routes := &fakeRouteRepo{}
	optimizer := directions.NewMockOptimizer()

	res, err := BuildRoute(
		context.Background(),
		buildRouteFixture(domain.ClientTarget(1)),
		clients, optimizer, routes, nil,
	)
	require.NoError(t, err)
	require.NotNil(t, res.Route)

	route := res.Route
	assert.Equal(t, int64(1), route.RouteID, "the persisted route is returned")
	assert.Equal(t, "u1", route.UserID)
	assert.Equal(t, string(ports.ModeDriving), route.VehicleType, "vehicle type defaults to driving")
	assert.Equal(t, OptimizationExternal, route.OptimizationMethod)
	require.Len(t, routes.saved, 1)

	require.NotEmpty(t, route.Stops)
	assert.Equal(t, domain.StopTypeStart, route.Stops[0].StopType)
	assert.Equal(t, domain.StopTypeEnd, route.Stops[len(route.Stops)-1].StopType)
	for i, s := range route.Stops {
		assert.Equal(t, i, s.StopOrder, "stop orders are contiguous")
	}

	var targets int
	for _, s := range route.Stops {
		if s.StopType == domain.StopTypeTarget {
			targets++
			assert.Equal(t, int64(1), s.ClientID)
		}
	}
	assert.Equal(t, 1, targets, "exactly one mandatory target stop")

	assert.GreaterOrEqual(t, route.Metadata.Attempts, 1)
	assert.GreaterOrEqual(t, route.TotalVisits, 1)
	assert.NotEmpty(t, route.Metadata.RawResponse)
}

func TestBuildRouteRejectsForeignClientTarget(t *testing.T) {
	clients := &stubClientRepo{clients: corridorClients()}

	_, err := BuildRoute(
		context.Background(),
		buildRouteFixture(domain.ClientTarget(99)),
		clients, directions.NewMockOptimizer(), &fakeRouteRepo{}, nil,
	)
	require.ErrorIs(t, err, ErrNotOwned)
}

func TestBuildRouteGeocodesCustomAddressTarget(t *testing.T) {
	clients := &stubClientRepo{clients: corridorClients()}
	geocoder := &fakeGeocoder{coords: domain.Coordinates{Lat: 48.85, Lng: 2.35}}

	res, err := BuildRoute(
		context.Background(),
		buildRouteFixture(domain.CustomAddressTarget("5 Rue de la Paix, Paris", domain.Coordinates{})),
		clients, directions.NewMockOptimizer(), &fakeRouteRepo{}, geocoder,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, geocoder.calls)

	var found bool
	for _, s := range res.Route.Stops {
		if s.StopType == domain.StopTypeTarget {
			found = true
			assert.Equal(t, "5 Rue de la Paix, Paris", s.Address)
			assert.Equal(t, geocoder.coords, s.Position)
		}
	}
	assert.True(t, found)
}

func TestBuildRouteSkipsGeocodingWhenTargetHasCoordinates(t *testing.T) {
	clients := &stubClientRepo{clients: corridorClients()}
	geocoder := &fakeGeocoder{coords: domain.Coordinates{Lat: 1, Lng: 1}}

	pos := domain.Coordinates{Lat: 48.85, Lng: 2.35}
	_, err := BuildRoute(
		context.Background(),
		buildRouteFixture(domain.CustomAddressTarget("5 Rue de la Paix, Paris", pos)),
		clients, directions.NewMockOptimizer(), &fakeRouteRepo{}, geocoder,
	)
	require.NoError(t, err)
	assert.Equal(t, 0, geocoder.calls)
}

func TestBuildRouteValidatesRequest(t *testing.T) {
	var vErr *ValidationError

	req := buildRouteFixture(domain.ClientTarget(1))
	req.RadiusKm = 0
	_, err := BuildRoute(context.Background(), req, &stubClientRepo{}, directions.NewMockOptimizer(), &fakeRouteRepo{}, nil)
	require.ErrorAs(t, err, &vErr)

	req = buildRouteFixture(domain.ClientTarget(1))
	req.EndDatetime = req.StartDatetime
	_, err = BuildRoute(context.Background(), req, &stubClientRepo{}, directions.NewMockOptimizer(), &fakeRouteRepo{}, nil)
	require.ErrorAs(t, err, &vErr)

	req = buildRouteFixture(domain.ClientTarget(1))
	req.VehicleType = "hovercraft"
	_, err = BuildRoute(context.Background(), req, &stubClientRepo{}, directions.NewMockOptimizer(), &fakeRouteRepo{}, nil)
	require.ErrorAs(t, err, &vErr)
}

func TestBuildRouteWithoutOptimizationPreservesOrder(t *testing.T) {
	clients := &stubClientRepo{clients: corridorClients()}
	optimizer := directions.NewMockOptimizer()

	req := buildRouteFixture(domain.ClientTarget(1))
	req.OptimizationMethod = OptimizationNone

	res, err := BuildRoute(context.Background(), req, clients, optimizer, &fakeRouteRepo{}, nil)
	require.NoError(t, err)

	// Corridor order puts the mandatory target first; without optimization
	// the first intermediate stop must be the target.
	intermediates := res.Route.Stops[1 : len(res.Route.Stops)-1]
	require.NotEmpty(t, intermediates)
	assert.Equal(t, domain.StopTypeTarget, intermediates[0].StopType)
	assert.Equal(t, OptimizationNone, res.Route.OptimizationMethod)
}
