package cache

import (
	"context"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const matrixKeyPrefix = "route:matrix:"

// RedisMatrixCache stores whole travel matrices as JSON with an expiry.
// It implements ports.MatrixCache.
type RedisMatrixCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisMatrixCache(client *redis.Client, ttl time.Duration) *RedisMatrixCache {
	return &RedisMatrixCache{Client: client, TTL: ttl}
}

// ParseRedisURL builds a client from a redis:// URL.
func ParseRedisURL(raw string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *RedisMatrixCache) GetMatrix(ctx context.Context, key string) (_ ports.MatrixSnapshot, _ bool, err error) {
	defer obs.Time(ctx, "matrix.cache.Get")(&err)

	if c.Client == nil {
		return ports.MatrixSnapshot{}, false, errors.New("matrix cache: client is nil")
	}

	raw, err := c.Client.Get(ctx, matrixKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.MatrixSnapshot{}, false, nil
	}
	if err != nil {
		return ports.MatrixSnapshot{}, false, fmt.Errorf("get matrix cache: %w", err)
	}

	var snap ports.MatrixSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return ports.MatrixSnapshot{}, false, fmt.Errorf("get matrix cache: decode %q: %w", key, err)
	}

	return snap, true, nil
}

func (c *RedisMatrixCache) PutMatrix(ctx context.Context, key string, m ports.MatrixSnapshot) (err error) {
	defer obs.Time(ctx, "matrix.cache.Put")(&err)

	if c.Client == nil {
		return errors.New("matrix cache: client is nil")
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("put matrix cache: encode: %w", err)
	}

	if err := c.Client.Set(ctx, matrixKeyPrefix+key, raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("put matrix cache: %w", err)
	}

	return nil
}
