package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/isaid22/agentloop/pkg/domain"
)

// ArgPrefix prefixes the environment variables that carry action arguments.
const ArgPrefix = "AGENTLOOP_ARG_"

// Runner is a ToolExecutor that executes local processes.
// It follows a Strict Registry pattern for security (Allow-Listing): only
// registered commands run, and action arguments never become command flags.
type Runner struct {
	mu       sync.RWMutex
	registry map[string]ToolSpec
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry adds the loaded tool specs to the allow-list.
func WithRegistry(tools map[string]ToolSpec) RunnerOption {
	return func(r *Runner) {
		for name, spec := range tools {
			spec.Name = name
			r.registry[name] = spec
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ToolSpec),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[name] = ToolSpec{Name: name, Command: command, Args: args}
}

// Tools lists the registered processes as tool descriptions, sorted by name.
func (r *Runner) Tools() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Tool, 0, len(r.registry))
	for name, proc := range r.registry {
		out = append(out, domain.Tool{Name: name, Description: proc.Description, Parameters: proc.Parameters})
	}
	slices.SortFunc(out, func(a, b domain.Tool) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Run executes the process registered under action.Name.
// A non-zero exit is a failed result; only context cancellation is returned as an error.
func (r *Runner) Run(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	r.mu.RLock()
	proc, ok := r.registry[action.Name]
	r.mu.RUnlock()

	if !ok {
		return domain.FailedResult(action, domain.CauseToolError,
			fmt.Sprintf("process tool not registered: %s", action.Name)), nil
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(proc.Env, action.Args)...)

	// Capture Output
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ActionResult{}, ctxErr
		}
		return domain.FailedResult(action, domain.CauseToolError,
			fmt.Sprintf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String()))), nil
	}

	return domain.ActionResult{
		ID:      action.ID,
		Name:    action.Name,
		Success: true,
		Payload: parseOutput(stdout.String()),
	}, nil
}

// environment passes action arguments as AGENTLOOP_ARG_<KEY> variables,
// never as command-line flags.
func environment(fixed map[string]string, args map[string]any) []string {
	env := make([]string, 0, len(fixed)+len(args))
	for k, v := range fixed {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			// Complex types: Try JSON
			if data, err := json.Marshal(v); err == nil {
				val = string(data)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, ArgPrefix+strings.ToUpper(k)+"="+val)
	}
	return env
}

// parseOutput returns decoded JSON when stdout looks like an object or array,
// the trimmed text otherwise.
func parseOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return trimmed
}
