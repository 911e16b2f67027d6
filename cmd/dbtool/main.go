package main

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/adapters/cache"
	"delivery-route-engine/internal/adapters/distance"
	"delivery-route-engine/internal/adapters/repositories"
	"delivery-route-engine/internal/config"
	"delivery-route-engine/internal/platform/db"
	"delivery-route-engine/internal/ports"
	"errors"
	"flag"
	"fmt"
	"log"
)

// dbtool creates the schema and loads the stop seed file.
// Records without coordinates are geocoded through ORS when ORS_API_KEY is set.
func main() {
	skipSeed := flag.Bool("schema-only", false, "create tables without seeding stops")
	flag.Parse()

	if err := run(*skipSeed); err != nil {
		log.Fatal(err)
	}
}

func run(skipSeed bool) error {
	config.Load()

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx := context.Background()

	conn, err := db.Open(ctx, databaseURL, db.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer conn.Close()

	var geocoder ports.Geocoder
	if key := config.Get("ORS_API_KEY", ""); key != "" {
		client, err := distance.NewORSClient(key,
			distance.WithGeocodeCache(cache.NewSQLGeocodeCache(conn)),
			distance.WithCountry(config.Get("GEOCODE_COUNTRY", "")),
		)
		if err != nil {
			return err
		}
		geocoder = client
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/stops.json")
	if skipSeed {
		seedPath = ""
	}
	return initAndSeed(ctx, conn, seedPath, geocoder)
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string, geocoder ports.Geocoder) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Println("Schema ready.")

	if seedPath == "" {
		return nil
	}

	log.Printf("Seeding stops path=%s", seedPath)
	if err := repositories.SeedFromJSON(ctx, conn, seedPath, geocoder); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Println("Seeding complete.")

	return nil
}
