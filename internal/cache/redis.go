package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scorebook/pipeline/internal/metrics"
	"scorebook/pipeline/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache keys and lifetimes. The alias table changes rarely; rating
// snapshots are rebuilt nightly, so their entry outlives one cycle.
const (
	aliasKey         = "scorebook:aliases"
	latestRatingsKey = "scorebook:ratings:latest"

	aliasTTL   = 12 * time.Hour
	ratingsTTL = 36 * time.Hour
)

// Config holds Redis connection parameters
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Cache is a read-through layer in front of postgres. Every method
// degrades gracefully: a cold or unreachable Redis never fails a run,
// it just forces the caller back to the database.
type Cache struct {
	client *redis.Client
}

// NewCache creates a Redis-backed cache and verifies connectivity
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Int("db", cfg.DB).
		Msg("Redis connection established")

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Health checks Redis connectivity
func (c *Cache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// GetAliases returns the cached alias table, or ok=false on a miss
func (c *Cache) GetAliases(ctx context.Context) ([]models.TeamAlias, bool) {
	var aliases []models.TeamAlias
	if !c.getJSON(ctx, aliasKey, &aliases) {
		return nil, false
	}
	return aliases, true
}

// SetAliases stores the alias table
func (c *Cache) SetAliases(ctx context.Context, aliases []models.TeamAlias) error {
	return c.setJSON(ctx, aliasKey, aliases, aliasTTL)
}

// InvalidateAliases drops the cached alias table after a reseed
func (c *Cache) InvalidateAliases(ctx context.Context) error {
	start := time.Now()
	err := c.client.Del(ctx, aliasKey).Err()
	metrics.RecordCacheOperation("del", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to invalidate alias cache: %w", err)
	}
	return nil
}

// GetLatestRatings returns the cached rating snapshot, or ok=false on a miss
func (c *Cache) GetLatestRatings(ctx context.Context) ([]models.Rating, bool) {
	var ratings []models.Rating
	if !c.getJSON(ctx, latestRatingsKey, &ratings) {
		return nil, false
	}
	return ratings, true
}

// SetLatestRatings stores the most recent rating snapshot
func (c *Cache) SetLatestRatings(ctx context.Context, ratings []models.Rating) error {
	return c.setJSON(ctx, latestRatingsKey, ratings, ratingsTTL)
}

func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) bool {
	start := time.Now()
	payload, err := c.client.Get(ctx, key).Bytes()
	metrics.RecordCacheOperation("get", time.Since(start).Seconds())

	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return false
	}
	if err != nil {
		metrics.RecordCacheMiss()
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to database")
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		metrics.RecordCacheMiss()
		log.Warn().Err(err).Str("key", key).Msg("Cache entry corrupt, falling back to database")
		return false
	}

	metrics.RecordCacheHit()
	return true
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	start := time.Now()
	err = c.client.Set(ctx, key, payload, ttl).Err()
	metrics.RecordCacheOperation("set", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	log.Debug().Str("key", key).Int("bytes", len(payload)).Msg("Cache entry written")
	return nil
}
