// Package config loads the CLI configuration from agentloop.yaml and
// AGENTLOOP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/isaid22/agentloop"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "agentloop.yaml"

// EnvPrefix prefixes the environment variables that override file values,
// e.g. AGENTLOOP_STEP_LIMIT=20.
const EnvPrefix = "AGENTLOOP_"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the CLI configuration.
type Config struct {
	StepLimit      int           `mapstructure:"step_limit"`
	ActionTimeout  time.Duration `mapstructure:"action_timeout"`
	RunTimeout     time.Duration `mapstructure:"run_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`

	// Script is the YAML file replayed by the scripted reasoner.
	Script string `mapstructure:"script"`
	// Tools is the YAML allow-list of local processes.
	Tools string `mapstructure:"tools"`

	Cache         string        `mapstructure:"cache"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Addr is the listen address of the HTTP server.
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		StepLimit:      agentloop.DefaultStepLimit,
		ActionTimeout:  30 * time.Second,
		MaxConcurrency: 4,
		Script:         "script.yaml",
		Tools:          "tools.yaml",
		Cache:          CacheNone,
		CacheTTL:       10 * time.Minute,
		RedisAddr:      "localhost:6379",
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":8080",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error unless required is set.
// Relative script and tools paths are resolved against the file's directory.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	values := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if values == nil {
			values = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	for key, value := range Environ(os.Environ()) {
		values[key] = value
	}
	if err := decode(values, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if _, ok := values["script"]; ok && !filepath.IsAbs(cfg.Script) {
		cfg.Script = filepath.Join(dir, cfg.Script)
	}
	if _, ok := values["tools"]; ok && !filepath.IsAbs(cfg.Tools) {
		cfg.Tools = filepath.Join(dir, cfg.Tools)
	}
	return cfg, cfg.Validate()
}

// keys holds the mapstructure names of every Config field.
var keys = func() map[string]bool {
	out := map[string]bool{}
	t := reflect.TypeFor[Config]()
	for i := range t.NumField() {
		if tag := t.Field(i).Tag.Get("mapstructure"); tag != "" {
			out[tag] = true
		}
	}
	return out
}()

// Environ extracts AGENTLOOP_* overrides from an environment list,
// keyed by their lower-cased config name. Variables that name no config
// key, such as the AGENTLOOP_ARG_* arguments passed to tool processes,
// are ignored.
func Environ(environ []string) map[string]any {
	out := map[string]any{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if keys[name] {
			out[name] = value
		}
	}
	return out
}

func decode(values map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(values)
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.StepLimit <= 0:
		return errors.New("step_limit must be positive")
	case c.ActionTimeout < 0 || c.RunTimeout < 0 || c.CacheTTL < 0:
		return errors.New("timeouts must not be negative")
	case c.MaxConcurrency <= 0:
		return errors.New("max_concurrency must be positive")
	}
	switch c.Cache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return errors.New("cache redis needs redis_addr")
		}
	default:
		return fmt.Errorf("unknown cache %q (want none, memory or redis)", c.Cache)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// RunOptions converts the run settings into engine defaults.
func (c Config) RunOptions() []agentloop.RunOption {
	opts := []agentloop.RunOption{
		agentloop.WithStepLimit(c.StepLimit),
		agentloop.WithMaxConcurrency(c.MaxConcurrency),
	}
	if c.ActionTimeout > 0 {
		opts = append(opts, agentloop.WithActionTimeout(c.ActionTimeout))
	}
	if c.RunTimeout > 0 {
		opts = append(opts, agentloop.WithRunTimeout(c.RunTimeout))
	}
	return opts
}
