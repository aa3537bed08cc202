package domain

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Merge(t *testing.T) {
	schema := DefaultSchema()

	tests := []struct {
		name    string
		current *State
		update  Update
		want    map[string]any
		wantErr string
	}{
		{
			name:    "Seed From Nil",
			current: nil,
			update:  Messages(UserMessage("hi")),
			want: map[string]any{
				ChannelMessages: []Message{UserMessage("hi")},
			},
		},
		{
			name: "Messages Are Concatenated",
			current: &State{Channels: map[string]any{
				ChannelMessages: []Message{UserMessage("a")},
			}},
			update: Update{ChannelMessages: AssistantMessage("b")},
			want: map[string]any{
				ChannelMessages: []Message{UserMessage("a"), AssistantMessage("b")},
			},
		},
		{
			name: "Undeclared Channel Is Replaced",
			current: &State{Channels: map[string]any{
				"topic": "old",
			}},
			update: Update{"topic": "new"},
			want:   map[string]any{"topic": "new"},
		},
		{
			name: "Nil Fragment Appends Nothing",
			current: &State{Channels: map[string]any{
				ChannelMessages: []Message{UserMessage("a")},
			}},
			update: Update{ChannelMessages: nil},
			want: map[string]any{
				ChannelMessages: []Message{UserMessage("a")},
			},
		},
		{
			name:    "Ill Typed Fragment",
			current: NewState("r"),
			update:  Update{ChannelMessages: 42},
			wantErr: `merge channel "messages"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schema.Merge(tt.current, tt.update)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got.Channels); diff != "" {
				t.Errorf("Merge() channels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchema_MergeIsPure(t *testing.T) {
	schema := DefaultSchema()
	current := &State{
		RunID: "run-1",
		Step:  3,
		Channels: map[string]any{
			ChannelMessages: []Message{UserMessage("a")},
			"topic":         "x",
		},
	}

	next, err := schema.Merge(current, Update{
		ChannelMessages: []Message{AssistantMessage("b")},
		"topic":         "y",
	})
	require.NoError(t, err)

	// current is untouched
	assert.Len(t, current.Messages(), 1)
	assert.Equal(t, "x", current.Channels["topic"])

	// identity is carried over
	assert.Equal(t, "run-1", next.RunID)
	assert.Equal(t, 3, next.Step)
	assert.Len(t, next.Messages(), 2)
}

func TestSchema_AppendInvariant(t *testing.T) {
	// For any sequence of fragments, the messages channel equals their concatenation.
	schema := DefaultSchema()
	state := NewState("run")
	var want []Message

	for i := 0; i < 25; i++ {
		frag := make([]Message, i%4) // includes empty fragments
		for j := range frag {
			frag[j] = AssistantMessage(fmt.Sprintf("m-%d-%d", i, j))
		}
		want = append(want, frag...)

		var err error
		state, err = schema.Merge(state, Messages(frag...))
		require.NoError(t, err)
	}

	if diff := cmp.Diff(want, state.Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSchema_CustomReducer(t *testing.T) {
	schema := DefaultSchema()
	schema["notes"] = AppendSlice

	state, err := schema.Merge(nil, Update{"notes": "first"})
	require.NoError(t, err)
	state, err = schema.Merge(state, Update{"notes": []any{"second", "third"}})
	require.NoError(t, err)

	assert.Equal(t, []any{"first", "second", "third"}, state.Channels["notes"])
}

func TestState_Snapshot(t *testing.T) {
	state := &State{
		RunID: "run",
		Channels: map[string]any{
			ChannelMessages: []Message{
				AssistantMessage("calling", Action{ID: "a1", Name: "search", Args: map[string]any{"q": "x"}}),
			},
		},
	}

	snap := state.Snapshot()
	snap.Messages()[0].Actions[0].Args["q"] = "mutated"
	snap.Channels["extra"] = true

	last, ok := state.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "x", last.Actions[0].Args["q"])
	_, exists := state.Get("extra")
	assert.False(t, exists)
}

func TestState_LastMessageEmpty(t *testing.T) {
	_, ok := NewState("run").LastMessage()
	assert.False(t, ok)

	var nilState *State
	assert.Nil(t, nilState.Messages())
}
