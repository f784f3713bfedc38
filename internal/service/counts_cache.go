package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/infrastructure/redis"
)

// CountsCache holds per-user status counts in Redis. All methods are safe on
// a nil receiver, so the cache is strictly optional: a miss or a Redis error
// degrades to the directory query, never to a caller-visible failure.
type CountsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCountsCache creates a counts cache over a Redis client.
func NewCountsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CountsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &CountsCache{client: client, ttl: ttl, logger: logger}
}

func countsKey(userID string) string {
	return "task_counts:" + userID
}

// Get returns the cached counts for a user, or ok=false on a miss.
func (c *CountsCache) Get(userID string) (map[domain.TaskStatus]int, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := c.client.Get(ctx, countsKey(userID))
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.Warn("counts cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	counts := map[domain.TaskStatus]int{}
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		c.logger.Warn("counts cache entry corrupt", slog.String("error", err.Error()))
		return nil, false
	}

	return counts, true
}

// Put stores counts for a user.
func (c *CountsCache) Put(userID string, counts map[domain.TaskStatus]int) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, countsKey(userID), string(raw), c.ttl); err != nil {
		c.logger.Warn("counts cache write failed", slog.String("error", err.Error()))
	}
}

// Invalidate drops a user's cached counts after a task mutation.
func (c *CountsCache) Invalidate(userID string) {
	if c == nil || c.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Delete(ctx, countsKey(userID)); err != nil {
		c.logger.Warn("counts cache invalidation failed", slog.String("error", err.Error()))
	}
}
