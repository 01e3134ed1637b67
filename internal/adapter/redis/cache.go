// Package redis stores generated narratives in Redis so that replicas share
// one cache and entries survive restarts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Cache implements narrative.Cache on a Redis client.
type Cache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewCache connects lazily; use Ping to check the server at startup.
func NewCache(addr, password string, db int, ttl time.Duration) *Cache {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	return &Cache{rdb: rdb, ttl: ttl}
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get implements narrative.Cache.
func (c *Cache) Get(ctx context.Context, key string) (domain.Narrative, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Narrative{}, false, nil
	}
	if err != nil {
		return domain.Narrative{}, false, fmt.Errorf("redis get: %w", err)
	}

	var n domain.Narrative
	if err := json.Unmarshal(data, &n); err != nil {
		return domain.Narrative{}, false, fmt.Errorf("decode cached narrative: %w", err)
	}
	return n, true, nil
}

// Put implements narrative.Cache.
func (c *Cache) Put(ctx context.Context, key string, n domain.Narrative) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode narrative: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
