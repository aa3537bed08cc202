package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/isaid22/agentloop/internal/runtime"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, s *domain.State) (domain.Update, error) { return nil, nil }

func router(labels ...string) domain.Router {
	return domain.Router{
		Route:  func(*domain.State) string { return labels[0] },
		Labels: labels,
	}
}

func TestCompile_Valid(t *testing.T) {
	g := domain.Graph{
		Entry: "agent",
		Nodes: []domain.Node{
			{Name: "agent", Kind: domain.NodeKindReasoning, Run: noop},
			{Name: "tools", Kind: domain.NodeKindTools, Run: noop},
		},
		Edges: []domain.Edge{{From: "tools", To: "agent"}},
		Conditional: []domain.ConditionalEdge{{
			From:   "agent",
			Router: router("continue", "end"),
			Table:  map[string]string{"continue": "tools", "end": domain.End},
		}},
	}

	topo, err := runtime.Compile(g)
	require.NoError(t, err)
	assert.Equal(t, "agent", topo.Entry())

	info := topo.Info()
	require.Len(t, info.Nodes, 2)
	assert.Equal(t, domain.NodeInfo{Name: "agent", Kind: domain.NodeKindReasoning}, info.Nodes[0])
	assert.Equal(t, []domain.Edge{{From: "tools", To: "agent"}}, info.Edges)
	require.Len(t, info.Routes, 1)
	assert.Equal(t, "tools", info.Routes[0].Table["continue"])

	// The topology must not alias the caller's table.
	g.Conditional[0].Table["continue"] = "elsewhere"
	assert.Equal(t, "tools", topo.Info().Routes[0].Table["continue"])
}

func TestCompile_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		graph domain.Graph
		want  string
	}{
		{
			name:  "Missing Entry",
			graph: domain.Graph{Nodes: []domain.Node{{Name: "a", Run: noop}}},
			want:  "no entry node set",
		},
		{
			name:  "Undeclared Entry",
			graph: domain.Graph{Entry: "ghost", Nodes: []domain.Node{{Name: "a", Run: noop}}},
			want:  `entry node "ghost" is not declared`,
		},
		{
			name:  "Reserved Name",
			graph: domain.Graph{Entry: "a", Nodes: []domain.Node{{Name: "a", Run: noop}, {Name: domain.End, Run: noop}}},
			want:  "reserved",
		},
		{
			name:  "Duplicate Node",
			graph: domain.Graph{Entry: "a", Nodes: []domain.Node{{Name: "a", Run: noop}, {Name: "a", Run: noop}}},
			want:  "declared more than once",
		},
		{
			name:  "Nil Body",
			graph: domain.Graph{Entry: "a", Nodes: []domain.Node{{Name: "a"}}},
			want:  "has no body",
		},
		{
			name: "Dangling Edge",
			graph: domain.Graph{
				Entry: "a",
				Nodes: []domain.Node{{Name: "a", Run: noop}},
				Edges: []domain.Edge{{From: "a", To: "b"}},
			},
			want: "target is neither a declared node",
		},
		{
			name: "Label Missing From Table",
			graph: domain.Graph{
				Entry: "a",
				Nodes: []domain.Node{{Name: "a", Run: noop}, {Name: "b", Run: noop}},
				Conditional: []domain.ConditionalEdge{{
					From:   "a",
					Router: router("tools", "end"),
					Table:  map[string]string{"tools": "b"},
				}},
			},
			want: `label "end" has no entry in the routing table`,
		},
		{
			name: "Table Targets Unknown Node",
			graph: domain.Graph{
				Entry: "a",
				Nodes: []domain.Node{{Name: "a", Run: noop}},
				Conditional: []domain.ConditionalEdge{{
					From:   "a",
					Router: router("x"),
					Table:  map[string]string{"x": "nowhere"},
				}},
			},
			want: `targets undeclared node "nowhere"`,
		},
		{
			name: "Fixed And Conditional",
			graph: domain.Graph{
				Entry: "a",
				Nodes: []domain.Node{{Name: "a", Run: noop}},
				Edges: []domain.Edge{{From: "a", To: domain.End}},
				Conditional: []domain.ConditionalEdge{{
					From:   "a",
					Router: router("x"),
					Table:  map[string]string{"x": domain.End},
				}},
			},
			want: "both an unconditional and a conditional edge",
		},
		{
			name: "Undeclared Labels",
			graph: domain.Graph{
				Entry: "a",
				Nodes: []domain.Node{{Name: "a", Run: noop}},
				Conditional: []domain.ConditionalEdge{{
					From:   "a",
					Router: domain.Router{Route: func(*domain.State) string { return "x" }},
					Table:  map[string]string{"x": domain.End},
				}},
			},
			want: "declares no labels",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo, err := runtime.Compile(tt.graph)
			require.Error(t, err)
			assert.Nil(t, topo, "no partial topology may be returned")
			assert.True(t, errors.Is(err, domain.ErrCompile))

			var cErr *domain.CompileError
			require.ErrorAs(t, err, &cErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompile_ReportsEveryProblem(t *testing.T) {
	_, err := runtime.Compile(domain.Graph{
		Entry: "ghost",
		Nodes: []domain.Node{{Name: "a"}},
		Edges: []domain.Edge{{From: "a", To: "b"}},
	})

	var cErr *domain.CompileError
	require.ErrorAs(t, err, &cErr)
	assert.Len(t, cErr.Problems, 3)
	assert.Contains(t, err.Error(), "3 problems")
}

func TestCompile_MessagesAlwaysAppend(t *testing.T) {
	topo, err := runtime.Compile(domain.Graph{
		Entry:  "a",
		Nodes:  []domain.Node{{Name: "a", Run: noop}},
		Schema: domain.Schema{domain.ChannelMessages: domain.Replace, "plan": domain.Replace},
	})
	require.NoError(t, err)

	schema := topo.Schema()
	state, err := schema.Merge(nil, domain.Messages(domain.UserMessage("one")))
	require.NoError(t, err)
	state, err = schema.Merge(state, domain.Messages(domain.UserMessage("two")))
	require.NoError(t, err)
	assert.Len(t, state.Messages(), 2)
}
