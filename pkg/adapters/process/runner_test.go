package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process fixtures use sh")
	}
}

func TestRunner_Run(t *testing.T) {
	skipOnWindows(t)

	runner := NewRunner()
	runner.Register("hello", "echo", "hello")

	t.Run("Contract", func(t *testing.T) {
		tests.ToolExecutorContract(t, runner, domain.Action{ID: "call_0", Name: "hello"})
	})

	t.Run("Executes Registered Command", func(t *testing.T) {
		result, err := runner.Run(context.Background(), domain.Action{ID: "call_1", Name: "hello"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "call_1", result.ID)
		assert.Equal(t, "hello", result.Payload)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		result, err := runner.Run(context.Background(), domain.Action{ID: "call_2", Name: "hacker_script"})
		assert.NoError(t, err) // Should not return go error, but a failed result
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "not registered")
	})

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		runner.Register("echo_env", "sh", "-c", "echo $AGENTLOOP_ARG_MSG")

		result, err := runner.Run(context.Background(), domain.Action{
			ID:   "call_3",
			Name: "echo_env",
			Args: map[string]any{"msg": "SecretMessage; rm -rf /"},
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "SecretMessage; rm -rf /", result.Payload)
	})

	t.Run("Decodes JSON Output", func(t *testing.T) {
		runner.Register("json", "sh", "-c", `echo '{"count": 2}'`)

		result, err := runner.Run(context.Background(), domain.Action{ID: "call_4", Name: "json"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"count": float64(2)}, result.Payload)
	})

	t.Run("Non Zero Exit", func(t *testing.T) {
		runner.Register("fail", "sh", "-c", "echo broken >&2; exit 3")

		result, err := runner.Run(context.Background(), domain.Action{ID: "call_5", Name: "fail"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, domain.CauseToolError, result.Cause)
		assert.Contains(t, result.Error, "broken")
	})

	t.Run("Respects Cancellation", func(t *testing.T) {
		runner.Register("sleepy", "sleep", "5")

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := runner.Run(ctx, domain.Action{ID: "call_6", Name: "sleepy"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: greet
    command: sh
    args: ["-c", "echo hi $GREETING_SUFFIX"]
    env:
      GREETING_SUFFIX: there
    description: Says hi
    parameters:
      type: object
`), 0644))

	cfg, err := LoadTools(path)
	require.NoError(t, err)
	require.Contains(t, cfg, "greet")
	assert.Equal(t, "Says hi", cfg["greet"].Description)

	runner := NewRunner(WithRegistry(cfg), WithBaseDir(dir))
	tools := runner.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "greet", tools[0].Name)
	assert.Equal(t, "object", tools[0].Parameters["type"])

	if runtime.GOOS != "windows" {
		result, err := runner.Run(context.Background(), domain.Action{ID: "1", Name: "greet"})
		require.NoError(t, err)
		assert.Equal(t, "hi there", result.Payload)
	}

	t.Run("Missing File", func(t *testing.T) {
		cfg, err := LoadTools(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Empty(t, cfg)
	})

	t.Run("Missing Command", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"tools":[{"name":"x"}]}`), 0644))
		_, err := LoadTools(bad)
		assert.Error(t, err)
	})

	t.Run("Duplicate Name", func(t *testing.T) {
		dup := filepath.Join(dir, "dup.yaml")
		content := "tools:\n  - {name: a, command: echo}\n  - {name: a, command: printf}\n"
		require.NoError(t, os.WriteFile(dup, []byte(content), 0644))
		_, err := LoadTools(dup)
		assert.ErrorContains(t, err, "declared twice")
	})
}
