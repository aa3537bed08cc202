package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCompile is matched by every *CompileError.
	ErrCompile = errors.New("graph compilation failed")

	// ErrStepLimitExceeded is matched by every *StepLimitExceeded.
	ErrStepLimitExceeded = errors.New("step limit exceeded")

	// ErrUnknownRoute is returned when a routing function yields a label missing from its table.
	ErrUnknownRoute = errors.New("unknown route label")

	// ErrToolNotFound is returned when an action names a capability nobody registered.
	ErrToolNotFound = errors.New("tool not found")
)

// CompileError reports every problem found while validating a graph.
type CompileError struct {
	Problems []string
}

func (e *CompileError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%v: %s", ErrCompile, e.Problems[0])
	}
	return fmt.Sprintf("%v: %d problems:\n  - %s", ErrCompile, len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}

// ReasonerError wraps a failure of the reasoning capability.
type ReasonerError struct {
	Cause error
}

func (e *ReasonerError) Error() string {
	return fmt.Sprintf("reasoner failed: %v", e.Cause)
}

func (e *ReasonerError) Unwrap() error { return e.Cause }

// ToolExecutionError wraps a failure of the tool capability for one action.
type ToolExecutionError struct {
	ActionID string
	Cause    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool execution failed (action %s): %v", e.ActionID, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// NodeExecutionError aborts a run when a node body fails.
type NodeExecutionError struct {
	Node  string
	Step  int
	Cause error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q failed at step %d: %v", e.Node, e.Step, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error { return e.Cause }

// StepLimitExceeded is the safety cutoff for runs that never reach End.
type StepLimitExceeded struct {
	Limit int
	// Node is the node that would have executed next.
	Node string
}

func (e *StepLimitExceeded) Error() string {
	return fmt.Sprintf("%v: limit %d reached before running %q", ErrStepLimitExceeded, e.Limit, e.Node)
}

func (e *StepLimitExceeded) Is(target error) bool {
	return target == ErrStepLimitExceeded
}
