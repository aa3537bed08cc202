package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/isaid22/agentloop/pkg/adapters/cache"
	"github.com/isaid22/agentloop/pkg/adapters/memory"
	"github.com/isaid22/agentloop/pkg/adapters/redis"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/ports"
	"github.com/isaid22/agentloop/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// countingExecutor succeeds for "search" and fails for everything else.
func countingExecutor(calls *atomic.Int32) ports.ToolExecutor {
	return ports.ToolExecutorFunc(func(ctx context.Context, a domain.Action) (domain.ActionResult, error) {
		calls.Add(1)
		if a.Name != "search" {
			return domain.FailedResult(a, domain.CauseToolError, "nope"), nil
		}
		return domain.ActionResult{ID: a.ID, Name: a.Name, Success: true, Payload: "hits"}, nil
	})
}

func TestKey_Canonical(t *testing.T) {
	a, err := cache.Key(domain.Action{ID: "1", Name: "search", Args: map[string]any{"q": "go", "n": 3}})
	require.NoError(t, err)
	b, err := cache.Key(domain.Action{ID: "2", Name: "search", Args: map[string]any{"n": 3, "q": "go"}})
	require.NoError(t, err)
	c, err := cache.Key(domain.Action{ID: "3", Name: "lookup", Args: map[string]any{"n": 3, "q": "go"}})
	require.NoError(t, err)

	assert.Equal(t, a, b, "action IDs and key order must not matter")
	assert.NotEqual(t, a, c)

	_, err = cache.Key(domain.Action{Name: "bad", Args: map[string]any{"ch": make(chan int)}})
	assert.Error(t, err)
}

func TestExecutor_Memory(t *testing.T) {
	var calls atomic.Int32
	exec := cache.New(countingExecutor(&calls), memory.NewCache())
	ctx := context.Background()

	first, err := exec.Run(ctx, domain.Action{ID: "a", Name: "search", Args: map[string]any{"q": "go"}})
	require.NoError(t, err)
	second, err := exec.Run(ctx, domain.Action{ID: "b", Name: "search", Args: map[string]any{"q": "go"}})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second call should be served from cache")
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID, "cached results are re-correlated to the new action")
	assert.Equal(t, "hits", second.Payload)

	// Failures are never cached.
	for range 2 {
		res, err := exec.Run(ctx, domain.Action{ID: "c", Name: "broken"})
		require.NoError(t, err)
		assert.False(t, res.Success)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecutor_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	var calls atomic.Int32
	exec := cache.New(countingExecutor(&calls), redis.New(mr.Addr(), "", 0))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		res, err := exec.Run(ctx, domain.Action{ID: id, Name: "search", Args: map[string]any{"q": "go"}})
		require.NoError(t, err)
		assert.Equal(t, id, res.ID)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, mr.Keys(), 1)
}

func TestExecutor_OnlySelectedTools(t *testing.T) {
	var calls atomic.Int32
	exec := cache.New(countingExecutor(&calls), memory.NewCache(), cache.WithTools("lookup"))

	for range 2 {
		_, err := exec.Run(context.Background(), domain.Action{ID: "a", Name: "search"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (domain.ActionResult, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.ActionResult), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key string, res domain.ActionResult) error {
	return m.Called(ctx, key, res).Error(0)
}

func TestExecutor_CacheFaultsAreIgnored(t *testing.T) {
	broken := new(mockCache)
	broken.On("Get", mock.Anything, mock.Anything).Return(domain.ActionResult{}, false, errors.New("connection refused"))
	broken.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	var calls atomic.Int32
	exec := cache.New(countingExecutor(&calls), broken)

	res, err := exec.Run(context.Background(), domain.Action{ID: "a", Name: "search"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	broken.AssertExpectations(t)
}

func TestExecutor_ForwardsCatalog(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterTool(domain.Tool{Name: "search"}, func(ctx context.Context, args map[string]any) (any, error) { return nil, nil })

	exec := cache.New(reg, memory.NewCache())
	require.Len(t, exec.Tools(), 1)
	assert.Equal(t, "search", exec.Tools()[0].Name)

	assert.Nil(t, cache.New(countingExecutor(new(atomic.Int32)), memory.NewCache()).Tools())
}
