package main

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/adapters/cache"
	"delivery-route-engine/internal/adapters/distance"
	"delivery-route-engine/internal/adapters/repositories"
	"delivery-route-engine/internal/api"
	"delivery-route-engine/internal/api/handlers"
	"delivery-route-engine/internal/config"
	"delivery-route-engine/internal/platform/db"
	"delivery-route-engine/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires the optional adapters (Postgres, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so deferred closes of the database and Redis
// clients happen on every path.
func run() error {
	config.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	route := &handlers.RouteHandler{
		Manager:         services.NewRouteManager(),
		SpeedKmh:        cfg.AverageSpeedKmh,
		DayStart:        cfg.DayStart,
		ProximityRadius: cfg.ProximityRadius,
	}

	var conn *sql.DB
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
		if err != nil {
			return err
		}
		defer conn.Close()

		repo := repositories.NewPostgresStopRepository(conn)
		route.Repo = repo

		stops, err := repo.ListStops(ctx)
		if err != nil {
			return fmt.Errorf("load stored stops: %w", err)
		}
		if err := route.Manager.Load(stops); err != nil {
			return fmt.Errorf("load stored stops: %w", err)
		}
	} else {
		log.Println("DATABASE_URL not set: stops are kept in memory only")
	}

	if cfg.RedisURL != "" {
		client, err := cache.ParseRedisURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, matrix cache calls will fail over to rebuilds: %v", err)
		}
		route.Cache = cache.NewRedisMatrixCache(client, cfg.MatrixCacheTTL)
	}

	if cfg.ORSAPIKey != "" {
		opts := []distance.Option{distance.WithProfile(cfg.ORSProfile)}
		// ORS results are persisted in Postgres when a database is configured.
		if conn != nil {
			opts = append(opts,
				distance.WithDistanceCache(cache.NewSQLDistanceCache(conn)),
				distance.WithGeocodeCache(cache.NewSQLGeocodeCache(conn)),
			)
		}

		provider, err := distance.NewORSClient(cfg.ORSAPIKey, opts...)
		if err != nil {
			return err
		}
		route.Provider = provider
	} else {
		log.Println("ORS_API_KEY not set: only the geodesic travel model is available")
	}

	// Timeouts are tuned for cold-cache matrix builds (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(route),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
