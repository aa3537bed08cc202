package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventNodeLeave  EventType = "node_leave"
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"
	EventRunEnd     EventType = "run_end"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	Node     string        `json:"node"`
	Kind     string        `json:"kind"`
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration,omitempty"` // Set on leave
	Err      error         `json:"-"`                  // Set on leave when the node failed
}

// ToolEvent represents a single action dispatch.
type ToolEvent struct {
	EventBase
	Node     string        `json:"node"`
	Action   Action        `json:"action"`
	Result   *ActionResult `json:"result,omitempty"` // Set on return
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// RunEvent is emitted once when a run ends, whatever the outcome.
type RunEvent struct {
	EventBase
	Status RunStatus `json:"status"`
	Steps  int       `json:"steps"`
	Err    error     `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously; tool hooks may be called from several goroutines at once.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
	OnRunEnd     func(context.Context, *RunEvent)
}

// ComposeHooks fans every callback out to all non-nil hooks, in order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
		OnToolCall: func(ctx context.Context, e *ToolEvent) {
			for _, h := range hooks {
				if h.OnToolCall != nil {
					h.OnToolCall(ctx, e)
				}
			}
		},
		OnToolReturn: func(ctx context.Context, e *ToolEvent) {
			for _, h := range hooks {
				if h.OnToolReturn != nil {
					h.OnToolReturn(ctx, e)
				}
			}
		},
		OnRunEnd: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunEnd != nil {
					h.OnRunEnd(ctx, e)
				}
			}
		},
	}
}

// StepEvent is one element of a streamed run: the node that executed, the
// fragment it produced and the post-merge state.
type StepEvent struct {
	Step   int    `json:"step"`
	Node   string `json:"node"`
	Update Update `json:"update"`
	State  *State `json:"state"`
}
