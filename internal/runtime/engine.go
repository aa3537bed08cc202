package runtime

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/isaid22/agentloop/internal/logging"
	"github.com/isaid22/agentloop/pkg/domain"
)

// errStopped is returned internally when a stream consumer stops early.
var errStopped = errors.New("stream consumer stopped")

// Engine executes runs over a compiled Topology.
// An Engine holds no per-run state; one Engine serves any number of concurrent runs.
type Engine struct {
	topology *Topology
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	defaults []RunOption
}

// NewEngine creates an engine for t.
func NewEngine(t *Topology, opts ...EngineOption) *Engine {
	e := &Engine{
		topology: t,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Topology returns the compiled graph the engine runs.
func (e *Engine) Topology() *Topology {
	return e.topology
}

// Invoke runs the graph from its entry node until it routes to End, and
// returns the final state. On failure no partial state is returned.
func (e *Engine) Invoke(ctx context.Context, initial domain.Update, opts ...RunOption) (*domain.State, error) {
	return e.run(ctx, initial, e.config(opts), nil)
}

// Stream runs the graph like Invoke but yields one StepEvent per node execution.
// The sequence ends after the last node, or with a single error element if the
// run fails. Breaking out of the loop abandons the run.
func (e *Engine) Stream(ctx context.Context, initial domain.Update, opts ...RunOption) iter.Seq2[domain.StepEvent, error] {
	cfg := e.config(opts)
	return func(yield func(domain.StepEvent, error) bool) {
		_, err := e.run(ctx, initial, cfg, func(ev domain.StepEvent) bool {
			return yield(ev, nil)
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(domain.StepEvent{}, err)
		}
	}
}

func (e *Engine) config(opts []RunOption) RunConfig {
	var cfg RunConfig
	for _, opt := range e.defaults {
		opt(&cfg)
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.StepLimit <= 0 {
		cfg.StepLimit = DefaultStepLimit
	}
	return cfg
}

func (e *Engine) run(ctx context.Context, initial domain.Update, cfg RunConfig, emit func(domain.StepEvent) bool) (final *domain.State, err error) {
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	logger := e.logger.With("run_id", runID)
	steps := 0
	defer func() {
		e.finish(ctx, logger, runID, steps, err)
	}()

	state, err := e.topology.schema.Merge(domain.NewState(runID), initial)
	if err != nil {
		return nil, fmt.Errorf("seed run state: %w", err)
	}
	logger.DebugContext(ctx, "run started", "node", e.topology.entry, "step_limit", cfg.StepLimit)

	current := e.topology.entry
	for current != domain.End {
		if steps >= cfg.StepLimit {
			return nil, &domain.StepLimitExceeded{Limit: cfg.StepLimit, Node: current}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("run stopped before node %q: %w", current, ctxErr)
		}

		node := e.topology.nodes[current]
		step := steps + 1

		update, err := e.execute(ctx, node, state, step, runID, cfg)
		if err != nil {
			return nil, err
		}

		next, err := e.topology.schema.Merge(state, update)
		if err != nil {
			return nil, &domain.NodeExecutionError{Node: current, Step: step, Cause: err}
		}
		steps = step
		next.Step = steps
		state = next

		logger.DebugContext(ctx, "node merged", "node", current, "step", steps, "messages", len(state.Messages()))

		if emit != nil && !emit(domain.StepEvent{
			Step:   steps,
			Node:   current,
			Update: cloneUpdate(update),
			State:  state.Snapshot(),
		}) {
			return nil, errStopped
		}

		target, err := e.topology.next(current, state)
		if err != nil {
			return nil, &domain.NodeExecutionError{Node: current, Step: steps, Cause: err}
		}
		current = target
	}

	return state, nil
}

// execute runs a single node body with its RunInfo attached. Panics are
// reported as NodeExecutionError and never leave the run.
func (e *Engine) execute(ctx context.Context, node domain.Node, state *domain.State, step int, runID string, cfg RunConfig) (update domain.Update, err error) {
	nctx := domain.ContextWithRun(ctx, domain.RunInfo{
		RunID:          runID,
		Node:           node.Name,
		Step:           step,
		ActionTimeout:  cfg.ActionTimeout,
		MaxConcurrency: cfg.MaxConcurrency,
		Hooks:          e.hooks,
	})

	start := time.Now()
	e.emitNodeEnter(nctx, runID, node, step)
	defer func() {
		e.emitNodeLeave(nctx, runID, node, step, time.Since(start), err)
	}()
	defer func() {
		if r := recover(); r != nil {
			update = nil
			err = &domain.NodeExecutionError{Node: node.Name, Step: step, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	update, err = node.Run(nctx, state)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("run stopped during node %q: %w", node.Name, ctxErr)
		}
		return nil, &domain.NodeExecutionError{Node: node.Name, Step: step, Cause: err}
	}
	return update, nil
}

func (e *Engine) finish(ctx context.Context, logger *slog.Logger, runID string, steps int, err error) {
	status := domain.RunCompleted
	switch {
	case err == nil:
		logger.InfoContext(ctx, "run completed", "steps", steps)
	case errors.Is(err, errStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = domain.RunCanceled
		logger.InfoContext(ctx, "run canceled", "steps", steps, "err", err)
	default:
		status = domain.RunFailed
		logger.ErrorContext(ctx, "run failed", "steps", steps, "err", err)
	}

	if e.hooks.OnRunEnd == nil {
		return
	}
	e.hooks.OnRunEnd(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunEnd, RunID: runID},
		Status:    status,
		Steps:     steps,
		Err:       err,
	})
}

func (e *Engine) emitNodeEnter(ctx context.Context, runID string, node domain.Node, step int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEnter, RunID: runID},
		Node:      node.Name,
		Kind:      node.Kind,
		Step:      step,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, runID string, node domain.Node, step int, elapsed time.Duration, err error) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave, RunID: runID},
		Node:      node.Name,
		Kind:      node.Kind,
		Step:      step,
		Duration:  elapsed,
		Err:       err,
	})
}

func cloneUpdate(u domain.Update) domain.Update {
	if u == nil {
		return nil
	}
	out := maps.Clone(u)
	if msgs, ok := u[domain.ChannelMessages].([]domain.Message); ok {
		out[domain.ChannelMessages] = domain.CloneMessages(msgs)
	}
	return out
}
