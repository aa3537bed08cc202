package domain

import (
	"context"
	"time"
)

// RunInfo describes the node execution in progress. The engine attaches it to
// the context handed to every node so that nodes built ahead of time can honor
// per-run settings.
type RunInfo struct {
	RunID string
	Node  string
	Step  int

	// ActionTimeout bounds each tool call. Zero means the node default.
	ActionTimeout time.Duration

	// MaxConcurrency bounds the fan-out of one tool turn. Zero means the node default.
	MaxConcurrency int

	Hooks LifecycleHooks
}

type runInfoKey struct{}

// ContextWithRun returns a copy of ctx carrying info.
func ContextWithRun(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunFromContext returns the RunInfo attached by the engine, if any.
func RunFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}
