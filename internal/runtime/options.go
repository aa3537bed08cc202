package runtime

import (
	"log/slog"
	"time"

	"github.com/isaid22/agentloop/pkg/domain"
)

// DefaultStepLimit is the safety ceiling on node executions per run.
const DefaultStepLimit = 100

// RunConfig holds the per-invocation settings.
type RunConfig struct {
	// StepLimit is the maximum number of node executions. Values <= 0 mean DefaultStepLimit.
	StepLimit int

	// ActionTimeout bounds every tool call of the run. Zero leaves the node default.
	ActionTimeout time.Duration

	// RunTimeout is the wall-clock budget of the whole run. Zero means none.
	RunTimeout time.Duration

	// MaxConcurrency bounds the fan-out of a tool turn. Zero leaves the node default.
	MaxConcurrency int

	// RunID names the run. A UUID is generated when empty.
	RunID string
}

// RunOption adjusts a RunConfig.
type RunOption func(*RunConfig)

// WithStepLimit sets the step ceiling.
func WithStepLimit(n int) RunOption {
	return func(c *RunConfig) {
		c.StepLimit = n
	}
}

// WithActionTimeout bounds every ToolExecutor call of the run.
func WithActionTimeout(d time.Duration) RunOption {
	return func(c *RunConfig) {
		c.ActionTimeout = d
	}
}

// WithRunTimeout bounds the whole run.
func WithRunTimeout(d time.Duration) RunOption {
	return func(c *RunConfig) {
		c.RunTimeout = d
	}
}

// WithMaxConcurrency bounds how many actions of one turn run at once.
func WithMaxConcurrency(n int) RunOption {
	return func(c *RunConfig) {
		c.MaxConcurrency = n
	}
}

// WithRunID sets the run identifier used in logs, hooks and the returned state.
func WithRunID(id string) RunOption {
	return func(c *RunConfig) {
		c.RunID = id
	}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithDefaults sets run options applied before the per-call ones.
func WithDefaults(opts ...RunOption) EngineOption {
	return func(e *Engine) {
		e.defaults = append(e.defaults, opts...)
	}
}
