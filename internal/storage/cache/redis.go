// Package cache wraps the redis client used for template caching and the
// orchestrator run lock.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
)

// runLockKey guards orchestration passes: only one instance may hold it.
const runLockKey = "reminders:run-lock"

// Cache holds the redis connection.
type Cache struct {
	Db *redis.Client
}

// InitServer connects to redis and verifies the connection with a ping.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get unmarshals the cached JSON value for key into result. The first return
// value reports whether the key was present.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	err = json.Unmarshal([]byte(val), result)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set stores value as JSON under key with the given expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Db.Set(ctx, key, jsonData, expiration).Err()
}

// Invalidate removes key from the cache.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.Db.Del(ctx, key).Err()
}

// AcquireRunLock takes the orchestrator run lock with SetNX. It returns
// false when another run currently holds the lock. The TTL bounds how long a
// crashed run can block its successors.
func (c *Cache) AcquireRunLock(ctx context.Context, ttl time.Duration) (bool, error) {
	const op = "cache.AcquireRunLock"
	ok, err := c.Db.SetNX(ctx, runLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// ReleaseRunLock frees the orchestrator run lock.
func (c *Cache) ReleaseRunLock(ctx context.Context) error {
	return c.Db.Del(ctx, runLockKey).Err()
}
