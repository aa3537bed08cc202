package domain

import (
	"fmt"
	"maps"
)

// ChannelMessages is the conversation channel. It is merged by concatenation.
const ChannelMessages = "messages"

// Update is a partial state produced by a node (or by the caller when seeding a run).
// Keys are channel names, values are the fragment to merge into that channel.
type Update map[string]any

// Messages builds an Update that appends the given messages.
func Messages(msgs ...Message) Update {
	return Update{ChannelMessages: msgs}
}

// Reducer merges an update fragment into the current value of a channel.
// Reducers must be pure: they never mutate current or update.
type Reducer func(current, update any) (any, error)

// Replace is the last-write-wins reducer used for undeclared channels.
func Replace(_, update any) (any, error) {
	return update, nil
}

// AppendMessages concatenates message fragments, preserving arrival order.
// The fragment may be a []Message, a single Message, or nil.
func AppendMessages(current, update any) (any, error) {
	var base []Message
	switch v := current.(type) {
	case nil:
	case []Message:
		base = v
	default:
		return nil, fmt.Errorf("messages channel holds %T, want []Message", current)
	}

	var frag []Message
	switch v := update.(type) {
	case nil:
	case []Message:
		frag = v
	case Message:
		frag = []Message{v}
	default:
		return nil, fmt.Errorf("cannot append %T to messages channel", update)
	}

	out := make([]Message, 0, len(base)+len(frag))
	out = append(out, base...)
	out = append(out, frag...)
	return out, nil
}

// AppendSlice concatenates []any fragments. Non-slice fragments are appended as one element.
func AppendSlice(current, update any) (any, error) {
	var base []any
	switch v := current.(type) {
	case nil:
	case []any:
		base = v
	default:
		return nil, fmt.Errorf("channel holds %T, want []any", current)
	}

	out := make([]any, 0, len(base)+1)
	out = append(out, base...)
	switch v := update.(type) {
	case nil:
	case []any:
		out = append(out, v...)
	default:
		out = append(out, v)
	}
	return out, nil
}

// Schema declares the merge function for each channel.
// Channels without an entry use Replace.
type Schema map[string]Reducer

// DefaultSchema declares only the messages channel (append).
func DefaultSchema() Schema {
	return Schema{ChannelMessages: AppendMessages}
}

// Reducer returns the merge function for the channel.
func (s Schema) Reducer(channel string) Reducer {
	if r, ok := s[channel]; ok && r != nil {
		return r
	}
	return Replace
}

// Merge applies update on top of current and returns a new State.
// current is left untouched. A nil current is treated as an empty state.
func (s Schema) Merge(current *State, update Update) (*State, error) {
	next := &State{Channels: make(map[string]any, len(update)+1)}
	if current != nil {
		next.RunID = current.RunID
		next.Step = current.Step
		maps.Copy(next.Channels, current.Channels)
	}

	for channel, frag := range update {
		merged, err := s.Reducer(channel)(next.Channels[channel], frag)
		if err != nil {
			return nil, fmt.Errorf("merge channel %q: %w", channel, err)
		}
		next.Channels[channel] = merged
	}
	return next, nil
}

// State is the evolving data threaded through one graph invocation (RunState).
type State struct {
	// RunID identifies the invocation that owns this state.
	RunID string `json:"run_id"`

	// Step is the number of node executions merged so far.
	Step int `json:"step"`

	// Channels holds the value of every channel written during the run.
	Channels map[string]any `json:"channels"`
}

// NewState creates an empty state for a run.
func NewState(runID string) *State {
	return &State{
		RunID:    runID,
		Channels: make(map[string]any),
	}
}

// Get returns the raw value of a channel.
func (s *State) Get(channel string) (any, bool) {
	if s == nil || s.Channels == nil {
		return nil, false
	}
	v, ok := s.Channels[channel]
	return v, ok
}

// Messages returns the messages channel. The slice must be treated as read-only.
func (s *State) Messages() []Message {
	v, _ := s.Get(ChannelMessages)
	msgs, _ := v.([]Message)
	return msgs
}

// LastMessage returns the most recent message, if any.
func (s *State) LastMessage() (Message, bool) {
	msgs := s.Messages()
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Snapshot returns a copy that shares nothing mutable with s on the messages channel.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	out := &State{
		RunID:    s.RunID,
		Step:     s.Step,
		Channels: make(map[string]any, len(s.Channels)),
	}
	maps.Copy(out.Channels, s.Channels)
	if msgs, ok := s.Channels[ChannelMessages].([]Message); ok {
		out.Channels[ChannelMessages] = CloneMessages(msgs)
	}
	return out
}
