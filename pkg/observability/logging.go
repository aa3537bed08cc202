package observability

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/isaid22/agentloop/pkg/domain"
)

// DefaultRedactedKeys match argument keys whose values never reach the log.
var DefaultRedactedKeys = []string{`(?i)passw(or)?d`, `(?i)secret`, `(?i)token`, `(?i)api_?key`}

const redacted = "***"

type logConfig struct {
	patterns []*regexp.Regexp
}

// LogOption configures LogHooks.
type LogOption func(*logConfig)

// WithRedactedKeys replaces the patterns used to mask action arguments.
// It panics if a pattern does not compile.
func WithRedactedKeys(patterns ...string) LogOption {
	return func(c *logConfig) {
		c.patterns = compile(patterns)
	}
}

func compile(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// LogHooks returns lifecycle hooks that log every event to logger.
// Tool call arguments are logged with sensitive keys masked.
func LogHooks(logger *slog.Logger, opts ...LogOption) domain.LifecycleHooks {
	cfg := &logConfig{patterns: compile(DefaultRedactedKeys)}
	for _, opt := range opts {
		opt(cfg)
	}

	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "run_id", e.RunID, "node", e.Node, "kind", e.Kind, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "node_leave", "run_id", e.RunID, "node", e.Node, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "node_leave", "run_id", e.RunID, "node", e.Node, "duration", e.Duration)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.InfoContext(ctx, "tool_call",
				"run_id", e.RunID,
				"action_id", e.Action.ID,
				"tool", e.Action.Name,
				"args", Redact(e.Action.Args, cfg.patterns...),
			)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.InfoContext(ctx, "tool_return",
				"run_id", e.RunID,
				"action_id", e.Action.ID,
				"tool", e.Action.Name,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_end", "run_id", e.RunID, "status", e.Status, "steps", e.Steps)
		},
	}
}

// Redact returns a copy of args with the values of matching keys masked.
// Nested objects are masked recursively; args itself is never modified.
func Redact(args map[string]any, patterns ...*regexp.Regexp) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if matchesAny(k, patterns) {
			out[k] = redacted
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			out[k] = Redact(sub, patterns...)
			continue
		}
		out[k] = v
	}
	return out
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
