// Package cache stores directory summaries in Redis, keyed by directory
// path and guarded by a fingerprint of the directory's audio files.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simonhull/audiodir/internal/types"
)

const keyPrefix = "audiodir:summary:"

// Cache provides summary caching using Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

type entry struct {
	Fingerprint string        `json:"fingerprint"`
	Summary     types.Summary `json:"summary"`
}

// New connects to Redis at addr and checks the connection. A zero ttl keeps
// entries until they are overwritten.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func key(dir string) string {
	return keyPrefix + dir
}

// Get returns the cached summary of dir. A miss, or an entry stored under a
// different fingerprint, returns nil without error.
func (c *Cache) Get(ctx context.Context, dir, fingerprint string) (*types.Summary, error) {
	data, err := c.client.Get(ctx, key(dir)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary from cache: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if e.Fingerprint != fingerprint {
		return nil, nil
	}
	return &e.Summary, nil
}

// Put stores s under its directory path.
func (c *Cache) Put(ctx context.Context, s types.Summary, fingerprint string) error {
	data, err := json.Marshal(entry{Fingerprint: fingerprint, Summary: s})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return c.client.Set(ctx, key(s.Path), data, c.ttl).Err()
}

// Delete removes the entry for dir.
func (c *Cache) Delete(ctx context.Context, dir string) error {
	return c.client.Del(ctx, key(dir)).Err()
}
