package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/isaid22/agentloop"
	"github.com/isaid22/agentloop/internal/config"
	"github.com/isaid22/agentloop/pkg/adapters/cache"
	"github.com/isaid22/agentloop/pkg/adapters/memory"
	"github.com/isaid22/agentloop/pkg/adapters/process"
	"github.com/isaid22/agentloop/pkg/adapters/redis"
	"github.com/isaid22/agentloop/pkg/adapters/script"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/nodes"
	"github.com/isaid22/agentloop/pkg/ports"
)

// Engine is an agent engine together with the resources it holds.
type Engine struct {
	*agentloop.Engine
	close func() error
}

// Close releases the cache connection, if any.
func (e *Engine) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}

// NewEngine builds the CLI agent: the scripted reasoner from cfg.Script and
// the process tools allow-listed in cfg.Tools, optionally behind a result cache.
func NewEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*Engine, error) {
	reasoner, err := script.Load(cfg.Script)
	if err != nil {
		return nil, err
	}

	toolConfig, err := process.LoadTools(cfg.Tools)
	if err != nil {
		return nil, err
	}
	runner := process.NewRunner(
		process.WithRegistry(toolConfig),
		process.WithBaseDir(filepath.Dir(cfg.Tools)),
	)
	catalog := runner.Tools()
	names := make([]string, 0, len(catalog))
	for _, tool := range catalog {
		names = append(names, tool.Name)
	}
	validate, err := nodes.ValidateArgs(catalog...)
	if err != nil {
		return nil, fmt.Errorf("invalid tools config %s: %w", cfg.Tools, err)
	}
	logger.Debug("tools loaded", "path", cfg.Tools, "tools", names)

	exec, closer, err := withCache(ctx, cfg, runner, logger)
	if err != nil {
		return nil, err
	}

	eng, err := agentloop.NewAgent(reasoner, exec,
		agentloop.WithName("cli"),
		agentloop.WithLogger(logger),
		agentloop.WithLifecycleHooks(domain.ComposeHooks(hooks...)),
		agentloop.WithRunDefaults(cfg.RunOptions()...),
		agentloop.WithToolOptions(
			nodes.WithToolErrorsAsResults(),
			nodes.WithInterceptor(nodes.MultiInterceptor(nodes.AllowList(names...), validate)),
		),
	)
	if err != nil {
		if closer != nil {
			closer()
		}
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return &Engine{Engine: eng, close: closer}, nil
}

func withCache(ctx context.Context, cfg config.Config, next ports.ToolExecutor, logger *slog.Logger) (ports.ToolExecutor, func() error, error) {
	switch cfg.Cache {
	case config.CacheMemory:
		return cache.New(next, memory.NewCache(memory.WithTTL(cfg.CacheTTL)), cache.WithLogger(logger)), nil, nil
	case config.CacheRedis:
		rc := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.CacheTTL))
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("redis cache unavailable at %s: %w", cfg.RedisAddr, err)
		}
		logger.Debug("redis cache connected", "addr", cfg.RedisAddr)
		return cache.New(next, rc, cache.WithLogger(logger)), rc.Close, nil
	default:
		return next, nil, nil
	}
}
