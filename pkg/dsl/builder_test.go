package dsl

import (
	"context"
	"strings"
	"testing"

	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/nodes"
	"github.com/isaid22/agentloop/pkg/ports"
)

func TestBuilder_AgentFlow(t *testing.T) {
	reasoner := ports.ReasonerFunc(func(ctx context.Context, msgs []domain.Message) (domain.Message, error) {
		return domain.AssistantMessage("ok"), nil
	})
	exec := ports.ToolExecutorFunc(func(ctx context.Context, a domain.Action) (domain.ActionResult, error) {
		return domain.ActionResult{ID: a.ID, Success: true}, nil
	})

	// 1. Build the graph using DSL
	b := New()

	b.Add("agent").
		Reason(reasoner).
		Route(nodes.ActionRouter(), map[string]string{nodes.LabelTools: "tools"}).
		Branch(nodes.LabelEnd, domain.End)

	b.Add("tools").
		Tools(exec).
		Go("agent")

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 2. Verify structure
	if g.Entry != "agent" {
		t.Errorf("Expected entry 'agent' (first node added), got '%s'", g.Entry)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes[0].Kind != domain.NodeKindReasoning || g.Nodes[1].Kind != domain.NodeKindTools {
		t.Errorf("Unexpected kinds: %s, %s", g.Nodes[0].Kind, g.Nodes[1].Kind)
	}
	if g.Nodes[0].Run == nil || g.Nodes[1].Run == nil {
		t.Error("Expected node bodies to be set")
	}
	if len(g.Edges) != 1 || g.Edges[0] != (domain.Edge{From: "tools", To: "agent"}) {
		t.Errorf("Expected edge tools -> agent, got %+v", g.Edges)
	}

	// 3. Verify conditional edge
	if len(g.Conditional) != 1 {
		t.Fatalf("Expected 1 conditional edge, got %d", len(g.Conditional))
	}
	c := g.Conditional[0]
	if c.From != "agent" {
		t.Errorf("Expected conditional edge from 'agent', got '%s'", c.From)
	}
	if c.Table[nodes.LabelTools] != "tools" || c.Table[nodes.LabelEnd] != domain.End {
		t.Errorf("Unexpected routing table: %v", c.Table)
	}

	// 4. Messages always append
	if _, ok := g.Schema[domain.ChannelMessages]; !ok {
		t.Error("Expected messages channel in schema")
	}
}

func TestBuilder_EntryAndChannels(t *testing.T) {
	noop := func(ctx context.Context, s *domain.State) (domain.Update, error) { return nil, nil }

	b := New().
		Entry("second").
		Channel("plan", domain.Replace).
		Channel(domain.ChannelMessages, domain.Replace)

	b.Add("first").Do(noop).Terminal()
	b.Add("second").Do(noop).Kind("planner").Go("first")

	if b.Node("first") == nil || b.Node("missing") != nil {
		t.Error("Expected Node to look up added nodes only")
	}

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if g.Entry != "second" {
		t.Errorf("Expected entry 'second', got '%s'", g.Entry)
	}
	if g.Nodes[1].Kind != "planner" {
		t.Errorf("Expected kind 'planner', got '%s'", g.Nodes[1].Kind)
	}
	if _, ok := g.Schema["plan"]; !ok {
		t.Error("Expected 'plan' channel to be declared")
	}

	// Redeclaring messages is ignored: it must still append.
	state, _ := g.Schema.Merge(nil, domain.Messages(domain.UserMessage("a")))
	state, _ = g.Schema.Merge(state, domain.Messages(domain.UserMessage("b")))
	if len(state.Messages()) != 2 {
		t.Errorf("Expected messages to append, got %d", len(state.Messages()))
	}

	wantEdges := []domain.Edge{{From: "first", To: domain.End}, {From: "second", To: "first"}}
	if len(g.Edges) != 2 || g.Edges[0] != wantEdges[0] || g.Edges[1] != wantEdges[1] {
		t.Errorf("Expected edges %v, got %v", wantEdges, g.Edges)
	}
}

func TestBuilder_DuplicateNode(t *testing.T) {
	first := func(ctx context.Context, s *domain.State) (domain.Update, error) { return nil, nil }
	second := func(ctx context.Context, s *domain.State) (domain.Update, error) {
		return domain.Messages(domain.UserMessage("second")), nil
	}

	b := New()
	original := b.Add("x").Do(first).Terminal()
	b.Add("x").Do(second)

	_, err := b.Build()
	if err == nil {
		t.Fatal("Expected Build to reject the duplicate node")
	}
	if !strings.Contains(err.Error(), `"x"`) {
		t.Errorf("Expected error to name the node, got %v", err)
	}
	if b.Node("x") != original {
		t.Error("Expected the first declaration to be kept")
	}
}

func TestBuilder_Empty(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Error("Expected error for empty graph")
	}
}
