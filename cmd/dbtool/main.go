package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"routemax-service/internal/adapters/repositories"
	"routemax-service/internal/config"
	"routemax-service/internal/platform/db"
)

// dbtool initializes the schema and seeds demo client rows, against Postgres
// when DATABASE_URL is set and a local SQLite file otherwise.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/clients.json")

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		initAndSeed(conn, seedPath, repositories.InitPostgresSchema, repositories.SeedPostgresClients)
		return
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	conn, err := db.OpenSqlite(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	initAndSeed(conn, seedPath, repositories.InitSqliteSchema, repositories.SeedSqliteClients)
}

func initAndSeed(
	conn *sql.DB,
	seedPath string,
	initSchema func(*sql.DB) error,
	seedClients func(*sql.DB, []repositories.ClientSeed) error,
) {
	log.Println("Initializing database schema...")
	if err := initSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	seeds, err := repositories.LoadClientSeeds(seedPath)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	log.Printf("Seeding %d clients...", len(seeds))
	if err := seedClients(conn, seeds); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
