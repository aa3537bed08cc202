package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/isaid22/agentloop/internal/logging"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/ports"
)

// Executor decorates a ToolExecutor with a ResultCache. Only successful
// results are stored; failures always reach the underlying executor again.
type Executor struct {
	next   ports.ToolExecutor
	cache  ports.ResultCache
	logger *slog.Logger
	only   []string
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets the logger used to report cache faults.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTools restricts caching to the named tools. By default every tool is cached.
func WithTools(names ...string) Option {
	return func(e *Executor) {
		e.only = append(e.only, names...)
	}
}

// New wraps next with cache.
func New(next ports.ToolExecutor, cache ports.ResultCache, opts ...Option) *Executor {
	e := &Executor{
		next:   next,
		cache:  cache,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Key derives the cache key of an action from its name and arguments.
// Map keys are sorted by encoding/json, so equal arguments give equal keys.
func Key(action domain.Action) (string, error) {
	data, err := json.Marshal(action.Args)
	if err != nil {
		return "", fmt.Errorf("failed to encode arguments of %q: %w", action.Name, err)
	}
	sum := sha256.Sum256(data)
	return action.Name + ":" + hex.EncodeToString(sum[:]), nil
}

// Run serves the action from the cache when possible.
// Cache faults are logged and never fail the action.
func (e *Executor) Run(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	if len(e.only) > 0 && !slices.Contains(e.only, action.Name) {
		return e.next.Run(ctx, action)
	}

	key, err := Key(action)
	if err != nil {
		e.logger.WarnContext(ctx, "action not cacheable", "action_id", action.ID, "tool", action.Name, "err", err)
		return e.next.Run(ctx, action)
	}

	cached, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		e.logger.WarnContext(ctx, "cache lookup failed", "tool", action.Name, "err", err)
	case ok:
		e.logger.DebugContext(ctx, "cache hit", "action_id", action.ID, "tool", action.Name)
		cached.ID = action.ID
		cached.Name = action.Name
		return cached, nil
	}

	res, err := e.next.Run(ctx, action)
	if err != nil || !res.Success {
		return res, err
	}
	if err := e.cache.Set(ctx, key, res); err != nil {
		e.logger.WarnContext(ctx, "cache store failed", "tool", action.Name, "err", err)
	}
	return res, nil
}

// Tools forwards the catalog of the wrapped executor, if it has one.
func (e *Executor) Tools() []domain.Tool {
	if catalog, ok := e.next.(ports.ToolCatalog); ok {
		return catalog.Tools()
	}
	return nil
}
