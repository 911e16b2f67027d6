package config

import (
	"delivery-route-engine/internal/domain"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads a .env file into the process environment when one exists.
// Variables already set take precedence.
func Load(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return n, nil
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return f, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return d, nil
}

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	ORSAPIKey   string
	ORSProfile  string

	AverageSpeedKmh float64
	DayStart        int // seconds since midnight
	SeedPath        string
	MatrixCacheTTL  time.Duration
	ProximityRadius float64
}

// FromEnv assembles the service configuration. Optional backends stay
// disabled when their variable is empty.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:        Get("PORT", "8080"),
		DatabaseURL: Get("DATABASE_URL", ""),
		RedisURL:    Get("REDIS_URL", ""),
		ORSAPIKey:   Get("ORS_API_KEY", ""),
		ORSProfile:  Get("ORS_PROFILE", "driving-car"),
		SeedPath:    Get("SEED_PATH", "data/seeds/stops.json"),
	}

	var err error
	if cfg.AverageSpeedKmh, err = GetFloat("AVERAGE_SPEED_KMH", 30); err != nil {
		return Config{}, err
	}
	if cfg.AverageSpeedKmh <= 0 {
		return Config{}, fmt.Errorf("config AVERAGE_SPEED_KMH: must be positive, got %v", cfg.AverageSpeedKmh)
	}

	if cfg.DayStart, err = domain.ParseClock(Get("DAY_START", "08:00")); err != nil {
		return Config{}, fmt.Errorf("config DAY_START: %w", err)
	}

	if cfg.MatrixCacheTTL, err = GetDuration("MATRIX_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.ProximityRadius, err = GetFloat("PROXIMITY_RADIUS_METERS", 50); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
