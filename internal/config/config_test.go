package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
step_limit: 12
action_timeout: 5s
run_timeout: 1m
max_concurrency: 2
script: demo/script.yaml
tools: /etc/agentloop/tools.yaml
cache: redis
redis_addr: cache:6379
log_format: json
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.StepLimit)
	assert.Equal(t, 5*time.Second, cfg.ActionTimeout)
	assert.Equal(t, time.Minute, cfg.RunTimeout)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "demo/script.yaml"), cfg.Script)
	assert.Equal(t, "/etc/agentloop/tools.yaml", cfg.Tools)
	assert.Equal(t, CacheRedis, cfg.Cache)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "json", cfg.LogFormat)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Addr, cfg.Addr)
	assert.Equal(t, Default().CacheTTL, cfg.CacheTTL)
	assert.Len(t, cfg.RunOptions(), 4)
}

func TestLoad_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(missing, true)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "step_limit: 12\n")
	t.Setenv("AGENTLOOP_STEP_LIMIT", "30")
	t.Setenv("AGENTLOOP_RUN_TIMEOUT", "45s")
	t.Setenv("AGENTLOOP_CACHE", "memory")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.StepLimit)
	assert.Equal(t, 45*time.Second, cfg.RunTimeout)
	assert.Equal(t, CacheMemory, cfg.Cache)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "stepLimit: 3\n",
		"bad duration":     "action_timeout: soon\n",
		"zero step limit":  "step_limit: 0\n",
		"unknown cache":    "cache: disk\n",
		"redis no address": "cache: redis\nredis_addr: \"\"\n",
		"bad log format":   "log_format: xml\n",
		"not a mapping":    "- a\n- b\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content), true)
			assert.Error(t, err)
		})
	}
}

func TestEnviron(t *testing.T) {
	got := Environ([]string{"HOME=/root", "AGENTLOOP_LOG_LEVEL=debug", "AGENTLOOP_BROKEN", "AGENTLOOP_ARG_TEXT=hi"})
	assert.Equal(t, map[string]any{"log_level": "debug"}, got)
}

func TestLoad_IgnoresToolArgumentEnv(t *testing.T) {
	// A CLI started as a tool process inherits AGENTLOOP_ARG_* variables.
	t.Setenv("AGENTLOOP_ARG_TEXT", "hello")
	t.Setenv("AGENTLOOP_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile), false)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}
