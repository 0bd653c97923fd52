package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSqliteSchema(db))
	return db
}

func seedTestClients(t *testing.T, db *sql.DB) {
	t.Helper()
	require.NoError(t, SeedSqliteClients(db, []ClientSeed{
		{ClientID: 1, UserID: "u1", Name: "Acme", Address: "1 Rue A", Lat: 48.85, Lng: 2.34, OpeningTime: "09:00", ClosingTime: "18:00"},
		{ClientID: 2, UserID: "u1", Name: "Globex", Address: "2 Rue B", Lat: 48.86, Lng: 2.35},
		{ClientID: 3, UserID: "u2", Name: "Initech", Address: "3 Rue C", Lat: 48.87, Lng: 2.36},
	}))
}

func TestSqliteClientRepository(t *testing.T) {
	db := openTestDB(t)
	seedTestClients(t, db)
	repo := NewSqliteClientRepository(db)

	clients, err := repo.ListActiveClients(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, clients, 2, "only the caller's clients are listed")
	assert.Equal(t, "Acme", clients[0].Name)
	assert.Equal(t, "09:00", clients[0].OpeningTime)
	assert.InDelta(t, 48.85, clients[0].Position.Lat, 1e-9)

	byID, err := repo.GetClientsByID(context.Background(), "u1", []int64{1, 3})
	require.NoError(t, err)
	require.Len(t, byID, 1, "another user's client is silently absent")
	assert.Equal(t, "Acme", byID[1].Name)

	empty, err := repo.GetClientsByID(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testRoute(userID string) *domain.Route {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

	return &domain.Route{
		UserID:               userID,
		Name:                 "Monday loop",
		StartAddress:         "1 Start Way",
		StartPosition:        domain.Coordinates{Lat: 48.85, Lng: 2.30},
		StartDatetime:        start,
		EndAddress:           "1 Start Way",
		EndPosition:          domain.Coordinates{Lat: 48.85, Lng: 2.38},
		EndDatetime:          end,
		TotalDistanceKm:      12.34,
		TotalDurationMinutes: 95,
		TotalVisits:          2,
		VehicleType:          "driving",
		OptimizationMethod:   "external",
		Metadata: domain.OptimizationMetadata{
			RawResponse: []byte(`{"status":"OK"}`),
			Attempts:    2,
			PruningTrace: []domain.PruningStep{
				{Attempt: 1, RemovedName: "Far", RemovedClientID: 9, OvershootMinutes: 40},
			},
			ExcludedByPruning: 1,
		},
		Stops: []domain.RouteStop{
			{Name: "Start", Position: domain.Coordinates{Lat: 48.85, Lng: 2.30}, StopOrder: 0, EstimatedArrival: start, EstimatedDeparture: start, IsIncluded: true, StopType: domain.StopTypeStart},
			{ClientID: 1, Name: "Acme", Address: "1 Rue A", Position: domain.Coordinates{Lat: 48.85, Lng: 2.34}, StopOrder: 1, EstimatedArrival: start.Add(30 * time.Minute), EstimatedDeparture: start.Add(60 * time.Minute), DurationFromPreviousMinutes: 30, DistanceFromPreviousKm: 6.1, VisitDurationMinutes: 30, IsIncluded: true, StopType: domain.StopTypeClient},
			{Name: "End", Position: domain.Coordinates{Lat: 48.85, Lng: 2.38}, StopOrder: 2, EstimatedArrival: start.Add(95 * time.Minute), EstimatedDeparture: start.Add(95 * time.Minute), DurationFromPreviousMinutes: 65, DistanceFromPreviousKm: 6.24, IsIncluded: true, StopType: domain.StopTypeEnd},
		},
	}
}

func TestSqliteRouteRepositorySaveAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewSqliteRouteRepository(db)

	saved, err := repo.SaveRoute(context.Background(), testRoute("u1"))
	require.NoError(t, err)
	assert.NotZero(t, saved.RouteID)
	for _, s := range saved.Stops {
		assert.NotZero(t, s.StopID)
		assert.Equal(t, saved.RouteID, s.RouteID)
	}

	got, err := repo.GetRoute(context.Background(), "u1", saved.RouteID)
	require.NoError(t, err)
	assert.Equal(t, "Monday loop", got.Name)
	assert.Equal(t, 12.34, got.TotalDistanceKm)
	assert.Equal(t, 95, got.TotalDurationMinutes)
	assert.Equal(t, 2, got.Metadata.Attempts)
	require.Len(t, got.Metadata.PruningTrace, 1)
	assert.Equal(t, "Far", got.Metadata.PruningTrace[0].RemovedName)

	require.Len(t, got.Stops, 3)
	assert.Equal(t, domain.StopTypeStart, got.Stops[0].StopType)
	assert.Equal(t, int64(1), got.Stops[1].ClientID)
	assert.Equal(t, int64(0), got.Stops[0].ClientID, "stops without a client row scan as zero")
	assert.Equal(t, domain.StopTypeEnd, got.Stops[2].StopType)
	for i, s := range got.Stops {
		assert.Equal(t, i, s.StopOrder)
	}
}

func TestSqliteRouteRepositoryOwnershipAndNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewSqliteRouteRepository(db)

	saved, err := repo.SaveRoute(context.Background(), testRoute("u1"))
	require.NoError(t, err)

	_, err = repo.GetRoute(context.Background(), "u2", saved.RouteID)
	assert.ErrorIs(t, err, ports.ErrRouteNotFound, "another user's route reads as absent")

	_, err = repo.GetRoute(context.Background(), "u1", saved.RouteID+100)
	assert.ErrorIs(t, err, ports.ErrRouteNotFound)
}

func TestSqliteRouteRepositoryListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewSqliteRouteRepository(db)

	first, err := repo.SaveRoute(context.Background(), testRoute("u1"))
	require.NoError(t, err)
	second := testRoute("u1")
	second.Name = "Tuesday loop"
	_, err = repo.SaveRoute(context.Background(), second)
	require.NoError(t, err)
	_, err = repo.SaveRoute(context.Background(), testRoute("u2"))
	require.NoError(t, err)

	routes, err := repo.ListRoutes(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Empty(t, routes[0].Stops, "listing omits stops")
	assert.NotZero(t, first.RouteID)
}

func TestSqliteRouteRepositoryRollsBackOnBadStop(t *testing.T) {
	db := openTestDB(t)
	repo := NewSqliteRouteRepository(db)

	route := testRoute("u1")
	// Duplicate stop order violates the UNIQUE(route_id, stop_order)
	// constraint mid-transaction.
	route.Stops[2].StopOrder = route.Stops[1].StopOrder

	_, err := repo.SaveRoute(context.Background(), route)
	require.Error(t, err)

	routes, err := repo.ListRoutes(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, routes, "a failed stop insert leaves no orphan route row")
}
