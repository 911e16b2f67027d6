package cache

import (
	"context"
	"delivery-route-engine/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisMatrixCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisMatrixCache(client, ttl), mr
}

func TestRedisMatrixCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	_, ok, err := c.GetMatrix(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisMatrixCache_RoundTripWithTTL(t *testing.T) {
	c, mr := newTestCache(t, 10*time.Minute)
	ctx := context.Background()

	snap := ports.MatrixSnapshot{
		IDs:       []int{1, 2},
		Durations: [][]int{{0, 120}, {130, 0}},
	}
	require.NoError(t, c.PutMatrix(ctx, "k1", snap))

	assert.Equal(t, 10*time.Minute, mr.TTL(matrixKeyPrefix+"k1"))

	got, ok, err := c.GetMatrix(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)
}

func TestRedisMatrixCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.PutMatrix(ctx, "k1", ports.MatrixSnapshot{IDs: []int{1}, Durations: [][]int{{0}}}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.GetMatrix(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisMatrixCache_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(matrixKeyPrefix+"bad", "{not json"))

	_, ok, err := c.GetMatrix(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestParseRedisURL(t *testing.T) {
	_, err := ParseRedisURL("redis://localhost:6379/0")
	assert.NoError(t, err)

	_, err = ParseRedisURL("http://nope")
	assert.Error(t, err)
}
