package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"routemax-service/internal/adapters/cache"
	"routemax-service/internal/adapters/directions"
	"routemax-service/internal/adapters/repositories"
	"routemax-service/internal/api"
	"routemax-service/internal/config"
	"routemax-service/internal/platform/db"
	"routemax-service/internal/ports"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or SQLite, Google Directions, Redis)
// behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")

	apiKey := os.Getenv("MAPS_API_KEY")
	if strings.TrimSpace(apiKey) == "" {
		log.Fatal("MAPS_API_KEY is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if strings.TrimSpace(jwtSecret) == "" {
		log.Fatal("JWT_SECRET is required")
	}

	conn, clients, routes, geocodeCache, err := openStorage()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	directionsClient, err := directions.NewClient(apiKey, geocodeCache)
	if err != nil {
		log.Fatal(err)
	}

	// The pruning loop re-optimizes shrinking waypoint sets, so a Redis
	// cache in front of the paid API pays for itself quickly.
	var optimizer ports.RouteOptimizer = directionsClient
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		ttl := config.GetDuration("OPTIMIZER_CACHE_TTL", 24*time.Hour)
		optimizer, err = cache.NewRedisOptimizerCache(rdb, directionsClient, ttl)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Optimizer cache enabled addr=%s ttl=%s", addr, ttl)
	}

	router := api.NewRouter(clients, routes, optimizer, directionsClient, []byte(jwtSecret))

	// Timeouts are tuned for cold-cache route construction (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openStorage picks Postgres when DATABASE_URL is set, otherwise a local
// SQLite file. Both paths initialize the schema on startup.
func openStorage() (*sql.DB, ports.ClientRepository, ports.RouteRepository, directions.GeocodeCache, error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := repositories.InitPostgresSchema(conn); err != nil {
			conn.Close()
			return nil, nil, nil, nil, fmt.Errorf("open storage: %w", err)
		}
		return conn,
			repositories.NewPgClientRepository(conn),
			repositories.NewPgRouteRepository(conn),
			cache.NewSQLGeocodeCache(conn),
			nil
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	conn, err := db.OpenSqlite(dbPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := repositories.InitSqliteSchema(conn); err != nil {
		conn.Close()
		return nil, nil, nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return conn,
		repositories.NewSqliteClientRepository(conn),
		repositories.NewSqliteRouteRepository(conn),
		cache.NewSqliteGeocodeCache(conn),
		nil
}
