package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"strconv"       // Generation formatting
	"time"          // Time durations

	"personal_finance/internal/metrics" // Prometheus collectors

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// generationKey holds a counter bumped on every write that can change a summary
const generationKey = "finance:generation"

// Cache is a read-through JSON cache on Redis. A nil *Cache or a nil client
// disables caching: lookups miss and writes are dropped.
type Cache struct {
	rdb *redis.Client // Redis client
	ttl time.Duration // Entry lifetime
}

// NewCache creates a cache; rdb may be nil
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false, nil // Key does not exist
	} else if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return false, err // Other Redis error
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return false, err
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

// Set stores a value in Redis with the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err() // Set value in Redis with TTL
}

// Key prefixes name with the current generation, so a Bump orphans every older entry
func (c *Cache) Key(ctx context.Context, name string) (string, error) {
	if !c.enabled() {
		return name, nil
	}
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return "finance:" + strconv.FormatInt(gen, 10) + ":" + name, nil
}

// Bump invalidates every generation-scoped entry
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Incr(ctx, generationKey).Err()
}

// LedgerChanged bumps the generation after a committed ledger write
func (c *Cache) LedgerChanged(ctx context.Context) {
	if err := c.Bump(ctx); err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to invalidate cache")
	}
}
