package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/isaid22/agentloop/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Cache implements ports.ResultCache using Redis.
// Results are stored as JSON, so payloads come back as their JSON-decoded form.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for cached results.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached results.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: "agentloop:result:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a result from Redis. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) (domain.ActionResult, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.ActionResult{}, false, nil
		}
		return domain.ActionResult{}, false, fmt.Errorf("failed to load from redis: %w", err)
	}

	var res domain.ActionResult
	if err := json.Unmarshal(val, &res); err != nil {
		return domain.ActionResult{}, false, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return res, true, nil
}

// Set persists the result to Redis.
func (c *Cache) Set(ctx context.Context, key string, result domain.ActionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// Use 0 for no expiration if ttl is not set.
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
