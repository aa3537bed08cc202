package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/isaid22/agentloop/pkg/adapters/redis"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_Contract(t *testing.T) {
	// Setup miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	// Initialize client
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Run contract
	cache := redis.NewFromClient(client)
	tests.ResultCacheContract(t, cache)
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	cache := redis.NewFromClient(client, redis.WithTTL(time.Minute), redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "search:abc", domain.ActionResult{ID: "1", Name: "search", Success: true, Payload: "x"}))
	assert.True(t, mr.Exists("test:search:abc"), "key should carry the configured prefix")

	// Fast forward time in miniredis
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "search:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	require.NoError(t, mr.Set("agentloop:result:bad", "{not json"))

	cache := redis.New(mr.Addr(), "", 0)
	defer cache.Close()

	require.NoError(t, cache.Ping(context.Background()))
	_, ok, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}
