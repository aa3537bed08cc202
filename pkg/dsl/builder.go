package dsl

import (
	"errors"
	"fmt"
	"maps"

	"github.com/isaid22/agentloop/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	nodes  map[string]*NodeBuilder
	order  []string
	dups   []string
	entry  string
	schema domain.Schema
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes:  make(map[string]*NodeBuilder),
		schema: domain.DefaultSchema(),
	}
}

// Add creates a new node in the graph.
// The first node added is the entry unless Entry says otherwise.
// Adding a name twice makes Build fail; the first declaration is kept.
func (b *Builder) Add(name string) *NodeBuilder {
	nb := &NodeBuilder{
		node: domain.Node{
			Name: name,
			Kind: domain.NodeKindCustom,
		},
		builder: b,
	}
	if _, ok := b.nodes[name]; ok {
		b.dups = append(b.dups, name)
		return nb
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Node returns the builder of an added node, or nil.
func (b *Builder) Node(name string) *NodeBuilder {
	return b.nodes[name]
}

// Entry sets the node every run starts at.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Channel declares the merge function of a state channel.
// The messages channel is always append-only and cannot be redeclared.
func (b *Builder) Channel(name string, reducer domain.Reducer) *Builder {
	if name != domain.ChannelMessages {
		b.schema[name] = reducer
	}
	return b
}

// Build produces the graph definition. Structural validation happens when the
// graph is compiled.
func (b *Builder) Build() (domain.Graph, error) {
	if len(b.order) == 0 {
		return domain.Graph{}, errors.New("graph has no nodes")
	}
	if len(b.dups) > 0 {
		return domain.Graph{}, fmt.Errorf("duplicate node %q", b.dups[0])
	}

	g := domain.Graph{
		Entry:  b.entry,
		Schema: maps.Clone(b.schema),
	}
	if g.Entry == "" {
		g.Entry = b.order[0]
	}

	for _, name := range b.order {
		nb := b.nodes[name]
		g.Nodes = append(g.Nodes, nb.Build())
		if nb.next != "" {
			g.Edges = append(g.Edges, domain.Edge{From: name, To: nb.next})
		}
		if nb.router != nil {
			g.Conditional = append(g.Conditional, domain.ConditionalEdge{
				From:   name,
				Router: *nb.router,
				Table:  maps.Clone(nb.table),
			})
		}
	}
	return g, nil
}
