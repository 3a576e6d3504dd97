package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PlanCache implements ports.PlanCache using Redis. Keys are scopes
// ("user:<id>", "group:<id>"); ledger writers invalidate every scope a
// write touches.
type PlanCache struct {
	client *goredis.Client
	prefix string
}

// NewPlanCache creates a new Redis-backed settlement plan cache.
func NewPlanCache(client *goredis.Client) *PlanCache {
	return &PlanCache{
		client: client,
		prefix: "plan:",
	}
}

// Get retrieves a cached plan by scope. Returns nil, nil on a miss.
func (c *PlanCache) Get(ctx context.Context, scope string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+scope).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis plan get: %w", err)
	}
	return val, nil
}

// Set stores a computed plan with TTL.
func (c *PlanCache) Set(ctx context.Context, scope string, plan []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+scope, plan, ttl).Err(); err != nil {
		return fmt.Errorf("redis plan set: %w", err)
	}
	return nil
}

// Invalidate drops cached plans for the given scopes.
func (c *PlanCache) Invalidate(ctx context.Context, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}
	keys := make([]string, len(scopes))
	for i, scope := range scopes {
		keys[i] = c.prefix + scope
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis plan invalidate: %w", err)
	}
	return nil
}
