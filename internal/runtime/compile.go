package runtime

import (
	"fmt"
	"maps"
	"slices"

	"github.com/isaid22/agentloop/pkg/domain"
)

// Topology is a validated graph. It is never mutated after Compile returns and
// is safe to share between concurrent runs.
type Topology struct {
	entry  string
	nodes  map[string]domain.Node
	order  []string
	edges  map[string]string
	routes map[string]domain.ConditionalEdge
	schema domain.Schema
}

// Compile validates g and freezes it into a Topology.
// Every problem found is reported at once in a *domain.CompileError.
func Compile(g domain.Graph) (*Topology, error) {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	t := &Topology{
		entry:  g.Entry,
		nodes:  make(map[string]domain.Node, len(g.Nodes)),
		edges:  make(map[string]string, len(g.Edges)),
		routes: make(map[string]domain.ConditionalEdge, len(g.Conditional)),
		schema: make(domain.Schema, len(g.Schema)+1),
	}

	// 1. Nodes
	for _, n := range g.Nodes {
		switch {
		case n.Name == "":
			report("node with empty name")
			continue
		case n.Name == domain.End:
			report("node name %q is reserved for the terminal signal", domain.End)
			continue
		case n.Run == nil:
			report("node %q has no body", n.Name)
		}
		if _, dup := t.nodes[n.Name]; dup {
			report("node %q declared more than once", n.Name)
			continue
		}
		if n.Kind == "" {
			n.Kind = domain.NodeKindCustom
		}
		t.nodes[n.Name] = n
		t.order = append(t.order, n.Name)
	}

	// 2. Entry
	if g.Entry == "" {
		report("no entry node set")
	} else if _, ok := t.nodes[g.Entry]; !ok {
		report("entry node %q is not declared", g.Entry)
	}

	resolves := func(target string) bool {
		if target == domain.End {
			return true
		}
		_, ok := t.nodes[target]
		return ok
	}

	// 3. Fixed edges
	for _, e := range g.Edges {
		if _, ok := t.nodes[e.From]; !ok {
			report("edge %s -> %s: source is not a declared node", e.From, e.To)
			continue
		}
		if !resolves(e.To) {
			report("edge %s -> %s: target is neither a declared node nor %s", e.From, e.To, domain.End)
			continue
		}
		if prev, dup := t.edges[e.From]; dup {
			report("node %q has two unconditional edges (%s, %s)", e.From, prev, e.To)
			continue
		}
		t.edges[e.From] = e.To
	}

	// 4. Conditional edges
	for _, c := range g.Conditional {
		if _, ok := t.nodes[c.From]; !ok {
			report("conditional edge from %q: source is not a declared node", c.From)
			continue
		}
		if _, dup := t.routes[c.From]; dup {
			report("node %q has more than one conditional edge", c.From)
			continue
		}
		if _, fixed := t.edges[c.From]; fixed {
			report("node %q has both an unconditional and a conditional edge", c.From)
			continue
		}
		if c.Router.Route == nil {
			report("conditional edge from %q has no routing function", c.From)
			continue
		}
		if len(c.Router.Labels) == 0 {
			report("conditional edge from %q declares no labels", c.From)
			continue
		}

		ok := true
		for _, label := range c.Router.Labels {
			target, found := c.Table[label]
			if !found {
				report("conditional edge from %q: label %q has no entry in the routing table", c.From, label)
				ok = false
				continue
			}
			if !resolves(target) {
				report("conditional edge from %q: label %q targets undeclared node %q", c.From, label, target)
				ok = false
			}
		}
		for label, target := range c.Table {
			if !slices.Contains(c.Router.Labels, label) && !resolves(target) {
				report("conditional edge from %q: label %q targets undeclared node %q", c.From, label, target)
				ok = false
			}
		}
		if !ok {
			continue
		}

		t.routes[c.From] = domain.ConditionalEdge{
			From: c.From,
			Router: domain.Router{
				Route:  c.Router.Route,
				Labels: slices.Clone(c.Router.Labels),
			},
			Table: maps.Clone(c.Table),
		}
	}

	if len(problems) > 0 {
		return nil, &domain.CompileError{Problems: problems}
	}

	// 5. Schema. The messages channel is always append-only.
	maps.Copy(t.schema, g.Schema)
	t.schema[domain.ChannelMessages] = domain.AppendMessages

	return t, nil
}

// Entry returns the name of the first node of every run.
func (t *Topology) Entry() string {
	return t.entry
}

// Schema returns a copy of the channel reducers.
func (t *Topology) Schema() domain.Schema {
	return maps.Clone(t.schema)
}

// Info describes the topology for introspection. Nodes, edges and routes are
// listed in declaration order.
func (t *Topology) Info() domain.GraphInfo {
	info := domain.GraphInfo{
		Entry: t.entry,
		Nodes: make([]domain.NodeInfo, 0, len(t.order)),
	}
	for _, name := range t.order {
		n := t.nodes[name]
		info.Nodes = append(info.Nodes, domain.NodeInfo{Name: n.Name, Kind: n.Kind})
		if to, ok := t.edges[name]; ok {
			info.Edges = append(info.Edges, domain.Edge{From: name, To: to})
		}
		if c, ok := t.routes[name]; ok {
			info.Routes = append(info.Routes, domain.RouteInfo{
				From:   name,
				Labels: slices.Clone(c.Router.Labels),
				Table:  maps.Clone(c.Table),
			})
		}
	}
	return info
}
