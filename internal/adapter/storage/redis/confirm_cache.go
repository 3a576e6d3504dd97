package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ConfirmCache implements ports.ConfirmCache using Redis. A confirmed
// settlement's response is cached so retried confirms replay it without
// hitting the database lock path.
type ConfirmCache struct {
	client *goredis.Client
	prefix string
}

// NewConfirmCache creates a new Redis-backed confirmation cache.
func NewConfirmCache(client *goredis.Client) *ConfirmCache {
	return &ConfirmCache{
		client: client,
		prefix: "settlement:confirm:",
	}
}

// Get retrieves a cached confirmation response by settlement ID.
// Returns nil, nil if the key does not exist.
func (c *ConfirmCache) Get(ctx context.Context, settlementID string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+settlementID).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis confirm get: %w", err)
	}
	return val, nil
}

// Set stores a confirmation response with TTL.
func (c *ConfirmCache) Set(ctx context.Context, settlementID string, response []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+settlementID, response, ttl).Err(); err != nil {
		return fmt.Errorf("redis confirm set: %w", err)
	}
	return nil
}
