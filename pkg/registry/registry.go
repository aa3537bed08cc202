package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ToolFunction defines the signature for a tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	fn   ToolFunction
	tool domain.Tool
}

// Registry manages the available tools. It is a ports.ToolExecutor.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ToolFunction) {
	r.RegisterTool(domain.Tool{Name: name}, fn)
}

// RegisterTool adds a tool along with the description advertised to reasoners.
func (r *Registry) RegisterTool(tool domain.Tool, fn ToolFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = entry{fn: fn, tool: tool}
}

// Execute looks up a tool by name and executes it.
// Returns an error wrapping domain.ErrToolNotFound if the tool is not found.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}

	return e.fn(ctx, args)
}

// Run executes an action. Unknown tools and tool failures become failed
// results; only a canceled or expired context is returned as an error.
func (r *Registry) Run(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	payload, err := r.Execute(ctx, action.Name, action.Args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ActionResult{}, ctxErr
		}
		return domain.FailedResult(action, domain.CauseToolError, err.Error()), nil
	}
	return domain.ActionResult{
		ID:      action.ID,
		Name:    action.Name,
		Success: true,
		Payload: payload,
	}, nil
}

// Tools lists the registered tools, sorted by name.
func (r *Registry) Tools() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Tool, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.tool)
	}
	slices.SortFunc(out, func(a, b domain.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Typed adapts a function taking a struct into a ToolFunction.
// Arguments are decoded with mapstructure using the `json` tags of T, with weak
// typing so that "3" decodes into an int field.
func Typed[T any](fn func(ctx context.Context, args T) (any, error)) ToolFunction {
	return func(ctx context.Context, raw map[string]any) (any, error) {
		var args T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &args,
			TagName:          "json",
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create decoder: %w", err)
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return fn(ctx, args)
	}
}
