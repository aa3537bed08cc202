package script_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/isaid22/agentloop"
	"github.com/isaid22/agentloop/pkg/adapters/script"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weather = `
turns:
  - content: "Let me look that up."
    actions:
      - name: search
        args:
          query: weather in Paris
  - content: "It is sunny in Paris."
`

func TestParse(t *testing.T) {
	r, err := script.Parse([]byte(weather))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	_, err = script.Parse([]byte("turns: []"))
	assert.Error(t, err)

	_, err = script.Parse([]byte("turns:\n  - actions:\n      - args: {q: x}\n"))
	assert.ErrorContains(t, err, "without a name")
}

func TestReasoner_Decide(t *testing.T) {
	r, err := script.Parse([]byte(weather))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := r.Decide(ctx, []domain.Message{domain.UserMessage("weather?")})
	require.NoError(t, err)
	require.Len(t, first.Actions, 1)
	assert.Equal(t, "turn1-call1", first.Actions[0].ID)
	assert.Equal(t, "weather in Paris", first.Actions[0].Args["query"])

	history := []domain.Message{domain.UserMessage("weather?"), first, {Role: domain.RoleTool, Content: "sunny"}}
	second, err := r.Decide(ctx, history)
	require.NoError(t, err)
	assert.False(t, second.HasActions())
	assert.Equal(t, "It is sunny in Paris.", second.Content)

	_, err = r.Decide(ctx, append(history, second))
	assert.ErrorIs(t, err, script.ErrExhausted)
}

func TestReasoner_DrivesAgent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(weather), 0644))

	r, err := script.Load(path)
	require.NoError(t, err)

	tools := registry.NewRegistry()
	tools.Register("search", func(ctx context.Context, args map[string]any) (any, error) {
		return "sunny, 24C", nil
	})

	eng, err := agentloop.NewAgent(r, tools)
	require.NoError(t, err)

	// The same scripted reasoner serves two independent runs.
	for range 2 {
		state, err := eng.Invoke(context.Background(), "weather?")
		require.NoError(t, err)
		answer, _ := agentloop.Answer(state)
		assert.Equal(t, "It is sunny in Paris.", answer)
		assert.Equal(t, "sunny, 24C", state.Messages()[2].Content)
	}
}
