package ports

import (
	"context"

	"github.com/isaid22/agentloop/pkg/domain"
)

// ToolExecutor is the tool capability. It executes one Action and returns the
// matching ActionResult.
//
// A tool that ran and failed should be reported as a result with Success=false.
// A returned error means the executor itself could not do its job; the engine
// treats it as a ToolExecutionError.
type ToolExecutor interface {
	Run(ctx context.Context, action domain.Action) (domain.ActionResult, error)
}

// ToolExecutorFunc adapts a plain function to ToolExecutor.
type ToolExecutorFunc func(ctx context.Context, action domain.Action) (domain.ActionResult, error)

// Run calls f.
func (f ToolExecutorFunc) Run(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	return f(ctx, action)
}

// ToolCatalog is implemented by executors that can list what they offer.
type ToolCatalog interface {
	Tools() []domain.Tool
}
