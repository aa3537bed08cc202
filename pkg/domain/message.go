package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Role identifies the author of a message in the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Action is a request, emitted by a reasoning turn, to invoke a named capability.
// Compatible in shape with OpenAI/MCP tool call schemas.
type Action struct {
	ID   string         `json:"id" yaml:"id" mapstructure:"id"`                           // Correlates the Action with its ActionResult
	Name string         `json:"name" yaml:"name" mapstructure:"name"`                     // Capability to call
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"` // Arguments for the capability
}

// ResultCause classifies why an ActionResult failed.
type ResultCause string

const (
	CauseNone      ResultCause = ""
	CauseTimeout   ResultCause = "timeout"
	CauseCanceled  ResultCause = "canceled"
	CauseToolError ResultCause = "tool_error"
	CauseDenied    ResultCause = "denied"
)

// ActionResult is the paired response to an Action.
type ActionResult struct {
	ID      string      `json:"id"` // Must match the Action.ID
	Name    string      `json:"name,omitempty"`
	Success bool        `json:"success"`
	Payload any         `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
	Cause   ResultCause `json:"cause,omitempty"`
}

// FailedResult builds a failure-flagged result for the given action.
func FailedResult(action Action, cause ResultCause, msg string) ActionResult {
	return ActionResult{
		ID:    action.ID,
		Name:  action.Name,
		Error: msg,
		Cause: cause,
	}
}

// Tool describes a capability available to the reasoner.
// Used for introspection and for building model-facing schemas.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// Message is one entry of the messages channel.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`

	// ActionID is set on tool messages and points at the Action they answer.
	ActionID string `json:"action_id,omitempty"`

	// Actions are the capability calls requested by an assistant turn.
	Actions []Action `json:"actions,omitempty"`

	// IsError flags a tool message produced from a failed ActionResult.
	IsError bool `json:"is_error,omitempty"`
}

// HasActions reports whether the message carries pending Actions.
// A nil and an empty Actions list are equivalent.
func (m Message) HasActions() bool {
	return len(m.Actions) > 0
}

// UserMessage creates a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message, optionally requesting actions.
func AssistantMessage(content string, actions ...Action) Message {
	return Message{Role: RoleAssistant, Content: content, Actions: actions}
}

// ResultMessage converts an ActionResult into a tool message.
func ResultMessage(r ActionResult) Message {
	msg := Message{
		Role:     RoleTool,
		Name:     r.Name,
		ActionID: r.ID,
		IsError:  !r.Success,
	}
	if !r.Success {
		msg.Content = r.Error
		if msg.Content == "" {
			msg.Content = fmt.Sprintf("action failed (%s)", r.Cause)
		}
		return msg
	}
	msg.Content = payloadText(r.Payload)
	return msg
}

func payloadText(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}

// CloneAction returns a deep copy of an action.
func CloneAction(in Action) Action {
	out := in
	if in.Args != nil {
		out.Args = make(map[string]any, len(in.Args))
		maps.Copy(out.Args, in.Args)
	}
	return out
}

// CloneMessage returns a deep copy suitable for isolation across component boundaries.
func CloneMessage(in Message) Message {
	out := in
	if in.Actions != nil {
		out.Actions = make([]Action, len(in.Actions))
		for i := range in.Actions {
			out.Actions[i] = CloneAction(in.Actions[i])
		}
	}
	return out
}

// CloneMessages returns deep copies of all messages.
func CloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i := range in {
		out[i] = CloneMessage(in[i])
	}
	return out
}
