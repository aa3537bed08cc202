package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/isaid22/agentloop/internal/logging"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/ports"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultActionTimeout bounds a single ToolExecutor call.
	DefaultActionTimeout = 30 * time.Second

	// DefaultMaxConcurrency bounds how many actions of one turn run at once.
	DefaultMaxConcurrency = 4
)

// ToolOption configures a tool node.
type ToolOption func(*toolConfig)

type toolConfig struct {
	timeout         time.Duration
	concurrency     int
	errorsAsResults bool
	interceptor     Interceptor
	logger          *slog.Logger
}

// WithActionTimeout sets the default per-action timeout. A run-level timeout takes precedence.
func WithActionTimeout(d time.Duration) ToolOption {
	return func(c *toolConfig) {
		c.timeout = d
	}
}

// WithMaxConcurrency sets the default fan-out limit. A run-level limit takes precedence.
func WithMaxConcurrency(n int) ToolOption {
	return func(c *toolConfig) {
		c.concurrency = n
	}
}

// WithToolErrorsAsResults turns ToolExecutionErrors into failed results instead
// of aborting the run, leaving the reasoner to decide how to proceed.
func WithToolErrorsAsResults() ToolOption {
	return func(c *toolConfig) {
		c.errorsAsResults = true
	}
}

// WithInterceptor installs a policy middleware in front of the executor.
func WithInterceptor(i Interceptor) ToolOption {
	return func(c *toolConfig) {
		c.interceptor = i
	}
}

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) ToolOption {
	return func(c *toolConfig) {
		c.logger = logger
	}
}

// Tools builds a node that executes the Actions attached to the most recent
// message and appends one tool message per Action, in request order.
//
// Actions of one turn are dispatched concurrently (up to the configured limit);
// their messages are still appended in the order the Actions were requested.
func Tools(exec ports.ToolExecutor, opts ...ToolOption) domain.NodeFunc {
	cfg := toolConfig{
		timeout:     DefaultActionTimeout,
		concurrency: DefaultMaxConcurrency,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, state *domain.State) (domain.Update, error) {
		last, ok := state.LastMessage()
		if !ok || !last.HasActions() {
			cfg.logger.DebugContext(ctx, "tool node reached without pending actions")
			return nil, nil
		}

		info, _ := domain.RunFromContext(ctx)
		d := &dispatcher{
			exec:    exec,
			cfg:     cfg,
			info:    info,
			timeout: cfg.timeout,
			limit:   cfg.concurrency,
		}
		if info.ActionTimeout > 0 {
			d.timeout = info.ActionTimeout
		}
		if info.MaxConcurrency > 0 {
			d.limit = info.MaxConcurrency
		}

		results, err := d.dispatchAll(ctx, last.Actions)
		if err != nil {
			return nil, err
		}

		msgs := make([]domain.Message, len(results))
		for i, res := range results {
			msgs[i] = domain.ResultMessage(res)
		}
		return domain.Messages(msgs...), nil
	}
}

type dispatcher struct {
	exec    ports.ToolExecutor
	cfg     toolConfig
	info    domain.RunInfo
	timeout time.Duration
	limit   int
}

// dispatchAll fans the batch out and collects results by request index.
func (d *dispatcher) dispatchAll(ctx context.Context, actions []domain.Action) ([]domain.ActionResult, error) {
	results := make([]domain.ActionResult, len(actions))

	g, gctx := errgroup.WithContext(ctx)
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for i, action := range actions {
		// No new dispatches once the run is canceled or a sibling failed.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot may free up only after cancellation.
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := d.runOne(gctx, action)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *dispatcher) runOne(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	if d.cfg.interceptor != nil {
		allowed, denied, err := d.cfg.interceptor(ctx, action)
		if err != nil {
			return domain.ActionResult{}, &domain.ToolExecutionError{ActionID: action.ID, Cause: err}
		}
		if !allowed {
			d.cfg.logger.InfoContext(ctx, "action denied", "action_id", action.ID, "tool", action.Name)
			return deniedResult(action, denied), nil
		}
	}

	start := time.Now()
	d.emitCall(ctx, action)
	res, err := d.call(ctx, action)
	d.emitReturn(ctx, action, res, err, time.Since(start))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ActionResult{}, ctxErr
		}
		if d.cfg.errorsAsResults {
			d.cfg.logger.WarnContext(ctx, "tool error reported as result", "action_id", action.ID, "tool", action.Name, "err", err)
			return domain.FailedResult(action, domain.CauseToolError, err.Error()), nil
		}
		return domain.ActionResult{}, &domain.ToolExecutionError{ActionID: action.ID, Cause: err}
	}
	return res, nil
}

// call runs the executor under the per-action timeout. The executor runs in its
// own goroutine so one that ignores its context cannot hold the run past the deadline.
func (d *dispatcher) call(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if d.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type outcome struct {
		res domain.ActionResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool %q panicked: %v", action.Name, r)}
			}
		}()
		res, err := d.exec.Run(callCtx, domain.CloneAction(action))
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return d.timedOut(action), nil
			}
			return domain.ActionResult{}, out.err
		}
		return normalize(action, out.res)
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return domain.ActionResult{}, err
		}
		return d.timedOut(action), nil
	}
}

func (d *dispatcher) timedOut(action domain.Action) domain.ActionResult {
	return domain.FailedResult(action, domain.CauseTimeout,
		fmt.Sprintf("action %q timed out after %s", action.Name, d.timeout))
}

func (d *dispatcher) emitCall(ctx context.Context, action domain.Action) {
	d.cfg.logger.DebugContext(ctx, "dispatching action", "action_id", action.ID, "tool", action.Name)
	if d.info.Hooks.OnToolCall == nil {
		return
	}
	d.info.Hooks.OnToolCall(ctx, &domain.ToolEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolCall, RunID: d.info.RunID},
		Node:      d.info.Node,
		Action:    action,
	})
}

func (d *dispatcher) emitReturn(ctx context.Context, action domain.Action, res domain.ActionResult, err error, elapsed time.Duration) {
	isError := err != nil || !res.Success
	d.cfg.logger.DebugContext(ctx, "action returned", "action_id", action.ID, "tool", action.Name,
		"duration", elapsed, "is_error", isError)
	if d.info.Hooks.OnToolReturn == nil {
		return
	}
	event := &domain.ToolEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventToolReturn, RunID: d.info.RunID},
		Node:      d.info.Node,
		Action:    action,
		Duration:  elapsed,
		IsError:   isError,
	}
	if err == nil {
		event.Result = &res
	}
	d.info.Hooks.OnToolReturn(ctx, event)
}

// normalize enforces the correlation invariant on an executor's answer.
func normalize(action domain.Action, res domain.ActionResult) (domain.ActionResult, error) {
	if res.ID == "" {
		res.ID = action.ID
	}
	if res.ID != action.ID {
		return domain.ActionResult{}, fmt.Errorf("result id %q does not match action id %q", res.ID, action.ID)
	}
	if res.Name == "" {
		res.Name = action.Name
	}
	if !res.Success && res.Cause == domain.CauseNone {
		res.Cause = domain.CauseToolError
	}
	return res, nil
}

func deniedResult(action domain.Action, denied domain.ActionResult) domain.ActionResult {
	denied.ID = action.ID
	denied.Name = action.Name
	denied.Success = false
	if denied.Cause == domain.CauseNone {
		denied.Cause = domain.CauseDenied
	}
	if denied.Error == "" {
		denied.Error = "denied by policy"
	}
	return denied
}
