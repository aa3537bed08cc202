package tests

import (
	"context"
	"testing"
	"time"

	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ResultCacheContract runs a suite of tests to verify that a ResultCache
// implementation adheres to the interface contract.
func ResultCacheContract(t *testing.T, cache ports.ResultCache) {
	t.Helper()
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405.000")

	t.Run("Miss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, prefix+"-missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "-hit"
		want := domain.ActionResult{
			ID:      "call-1",
			Name:    "search",
			Success: true,
			Payload: "cached payload",
		}
		require.NoError(t, cache.Set(ctx, key, want))

		got, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want.Name, got.Name)
		assert.True(t, got.Success)
		// Payload may come back through JSON; only string payloads are guaranteed identical.
		assert.Equal(t, "cached payload", got.Payload)
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + "-overwrite"
		require.NoError(t, cache.Set(ctx, key, domain.ActionResult{Name: "a", Success: true, Payload: "v1"}))
		require.NoError(t, cache.Set(ctx, key, domain.ActionResult{Name: "a", Success: true, Payload: "v2"}))

		got, ok, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "v2", got.Payload)
	})
}

// ToolExecutorContract verifies that an executor answers ok with a result
// correlated to the action.
func ToolExecutorContract(t *testing.T, exec ports.ToolExecutor, ok domain.Action) {
	t.Helper()
	ctx := context.Background()

	t.Run("Correlates Result", func(t *testing.T) {
		res, err := exec.Run(ctx, ok)
		require.NoError(t, err)
		assert.Equal(t, ok.ID, res.ID)
		assert.True(t, res.Success, "expected success, got error %q", res.Error)
	})

	t.Run("Unknown Tool Is A Failed Result", func(t *testing.T) {
		res, err := exec.Run(ctx, domain.Action{ID: "contract-unknown", Name: "no-such-tool-" + ok.Name})
		require.NoError(t, err)
		assert.Equal(t, "contract-unknown", res.ID)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
	})
}
