//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"scorebook/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for the Redis cache
// Run with: go test -v -tags=integration ./internal/cache/...

func setupTestCache(t *testing.T) (*Cache, context.Context) {
	ctx := context.Background()

	cfg := Config{
		Host: "localhost",
		Port: "6379",
		DB:   1,
	}

	c, err := NewCache(ctx, cfg)
	require.NoError(t, err, "Failed to connect to test redis")

	return c, ctx
}

func TestCache_Aliases(t *testing.T) {
	c, ctx := setupTestCache(t)
	defer c.Close()

	require.NoError(t, c.InvalidateAliases(ctx))

	// Cold cache misses
	_, ok := c.GetAliases(ctx)
	assert.False(t, ok, "Cold cache should miss")

	aliases := []models.TeamAlias{
		{ID: 1, RawLabel: "LAK", CanonicalName: "Los Angeles Kings"},
		{ID: 2, RawLabel: "L.A. Kings", CanonicalName: "Los Angeles Kings"},
	}

	require.NoError(t, c.SetAliases(ctx, aliases), "Should write alias table")

	cached, ok := c.GetAliases(ctx)
	require.True(t, ok, "Warm cache should hit")
	require.Len(t, cached, 2)
	assert.Equal(t, "LAK", cached[0].RawLabel)
	assert.Equal(t, "Los Angeles Kings", cached[0].CanonicalName)

	// Invalidation forces the next read back to the database
	require.NoError(t, c.InvalidateAliases(ctx))
	_, ok = c.GetAliases(ctx)
	assert.False(t, ok, "Invalidated cache should miss")
}

func TestCache_LatestRatings(t *testing.T) {
	c, ctx := setupTestCache(t)
	defer c.Close()

	ratings := []models.Rating{
		{Team: "Anaheim Ducks", Value: 1490.2, GamesRated: 40, RatingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Team: "Los Angeles Kings", Value: 1523.8, GamesRated: 41, RatingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	require.NoError(t, c.SetLatestRatings(ctx, ratings), "Should write rating snapshot")

	cached, ok := c.GetLatestRatings(ctx)
	require.True(t, ok, "Snapshot should be cached")
	require.Len(t, cached, 2)
	assert.Equal(t, "Anaheim Ducks", cached[0].Team)
	assert.InDelta(t, 1490.2, cached[0].Value, 1e-9)
	assert.Equal(t, 40, cached[0].GamesRated)
}

func TestCache_Health(t *testing.T) {
	c, ctx := setupTestCache(t)
	defer c.Close()

	err := c.Health(ctx)
	assert.NoError(t, err, "Redis health check should pass")
}
