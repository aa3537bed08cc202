package agentloop

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/isaid22/agentloop/internal/logging"
	"github.com/isaid22/agentloop/internal/runtime"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/nodes"
	"github.com/isaid22/agentloop/pkg/ports"
)

// Node names used by NewAgent.
const (
	AgentNode = "agent"
	ToolsNode = "tools"
)

// DefaultStepLimit is the step ceiling applied when a run sets none.
const DefaultStepLimit = runtime.DefaultStepLimit

// Engine is the high-level entry point for the agentloop library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime    *runtime.Engine
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	defaults   []RunOption
	toolOpts   []nodes.ToolOption
	reasonOpts []nodes.ReasoningOption
	Name       string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithName labels the engine in logs.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// WithRunDefaults sets run options applied to every invocation before the per-call ones.
func WithRunDefaults(opts ...RunOption) Option {
	return func(e *Engine) {
		e.defaults = append(e.defaults, opts...)
	}
}

// WithToolOptions configures the tool node built by NewAgent.
func WithToolOptions(opts ...nodes.ToolOption) Option {
	return func(e *Engine) {
		e.toolOpts = append(e.toolOpts, opts...)
	}
}

// WithReasoningOptions configures the reasoning node built by NewAgent.
func WithReasoningOptions(opts ...nodes.ReasoningOption) Option {
	return func(e *Engine) {
		e.reasonOpts = append(e.reasonOpts, opts...)
	}
}

// New compiles g and returns an engine ready to run it.
// A graph that fails validation never produces an engine.
func New(g domain.Graph, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	return eng.compile(g)
}

// NewAgent builds the canonical agent loop: a reasoning node "agent" whose
// requested actions are executed by a tool node "tools", which hands control
// back to "agent". The run ends when the reasoner answers without actions.
func NewAgent(r ports.Reasoner, exec ports.ToolExecutor, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger != nil {
		eng.toolOpts = append([]nodes.ToolOption{nodes.WithLogger(eng.logger)}, eng.toolOpts...)
	}

	g := domain.Graph{
		Entry: AgentNode,
		Nodes: []domain.Node{
			{Name: AgentNode, Kind: domain.NodeKindReasoning, Run: nodes.Reasoning(r, eng.reasonOpts...)},
			{Name: ToolsNode, Kind: domain.NodeKindTools, Run: nodes.Tools(exec, eng.toolOpts...)},
		},
		Edges: []domain.Edge{{From: ToolsNode, To: AgentNode}},
		Conditional: []domain.ConditionalEdge{{
			From:   AgentNode,
			Router: nodes.ActionRouter(),
			Table: map[string]string{
				nodes.LabelTools: ToolsNode,
				nodes.LabelEnd:   domain.End,
			},
		}},
		Schema: domain.DefaultSchema(),
	}
	return eng.compile(g)
}

func (e *Engine) compile(g domain.Graph) (*Engine, error) {
	topo, err := runtime.Compile(g)
	if err != nil {
		return nil, err
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.Name != "" {
		e.logger = e.logger.With("graph", e.Name)
	}

	e.runtime = runtime.NewEngine(topo,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithDefaults(e.defaults...),
	)
	return e, nil
}

// Invoke runs the graph for a single user prompt and returns the final state.
func (e *Engine) Invoke(ctx context.Context, prompt string, opts ...RunOption) (*domain.State, error) {
	return e.InvokeUpdate(ctx, domain.Messages(domain.UserMessage(prompt)), opts...)
}

// InvokeUpdate runs the graph seeded with an arbitrary update.
func (e *Engine) InvokeUpdate(ctx context.Context, initial domain.Update, opts ...RunOption) (*domain.State, error) {
	return e.runtime.Invoke(ctx, initial, opts...)
}

// Stream runs the graph for a single user prompt, yielding one event per node execution.
func (e *Engine) Stream(ctx context.Context, prompt string, opts ...RunOption) iter.Seq2[domain.StepEvent, error] {
	return e.StreamUpdate(ctx, domain.Messages(domain.UserMessage(prompt)), opts...)
}

// StreamUpdate is Stream seeded with an arbitrary update.
func (e *Engine) StreamUpdate(ctx context.Context, initial domain.Update, opts ...RunOption) iter.Seq2[domain.StepEvent, error] {
	return e.runtime.Stream(ctx, initial, opts...)
}

// Describe returns the compiled topology for introspection.
func (e *Engine) Describe() domain.GraphInfo {
	return e.runtime.Topology().Info()
}

// Answer returns the content of the last assistant message of a finished run.
func Answer(state *domain.State) (string, error) {
	msgs := state.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			return msgs[i].Content, nil
		}
	}
	return "", fmt.Errorf("run produced no assistant message")
}

// RunOption configures a single invocation.
type RunOption = runtime.RunOption

// WithStepLimit sets the maximum number of node executions of a run.
func WithStepLimit(n int) RunOption {
	return runtime.WithStepLimit(n)
}

// WithActionTimeout bounds every tool call of a run.
func WithActionTimeout(d time.Duration) RunOption {
	return runtime.WithActionTimeout(d)
}

// WithRunTimeout bounds the wall-clock duration of a run.
func WithRunTimeout(d time.Duration) RunOption {
	return runtime.WithRunTimeout(d)
}

// WithMaxConcurrency bounds how many actions of one tool turn run at once.
func WithMaxConcurrency(n int) RunOption {
	return runtime.WithMaxConcurrency(n)
}

// WithRunID names a run. Without it a UUID is generated.
func WithRunID(id string) RunOption {
	return runtime.WithRunID(id)
}
