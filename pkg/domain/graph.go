package domain

import "context"

// End is the terminal sentinel. Routing to End stops the run.
// No node may be registered under this name.
const End = "__end__"

// Node kinds, used for introspection only.
const (
	NodeKindReasoning = "reasoning"
	NodeKindTools     = "tools"
	NodeKindCustom    = "custom"
)

// NodeFunc is the body of a node. It reads the current state and returns the
// fragment to merge. It must not mutate state.
type NodeFunc func(ctx context.Context, state *State) (Update, error)

// Node is a named unit of work.
type Node struct {
	Name string   `json:"name"`
	Kind string   `json:"kind"`
	Run  NodeFunc `json:"-"`
}

// Edge is an unconditional transition, always taken after From executes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RouteFunc inspects the post-merge state and returns a routing label.
type RouteFunc func(state *State) string

// Router pairs a routing function with every label it can produce.
// Declaring Labels lets the compiler check the routing table up front.
type Router struct {
	Route  RouteFunc
	Labels []string
}

// ConditionalEdge routes From through Router and looks the label up in Table.
// Table values are node names or End.
type ConditionalEdge struct {
	From   string
	Router Router
	Table  map[string]string
}

// Graph is the uncompiled definition of a topology, as produced by the builder.
type Graph struct {
	Entry       string
	Nodes       []Node
	Edges       []Edge
	Conditional []ConditionalEdge
	Schema      Schema
}

// NodeInfo describes a compiled node.
type NodeInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// RouteInfo describes a compiled conditional edge.
type RouteInfo struct {
	From   string            `json:"from"`
	Labels []string          `json:"labels"`
	Table  map[string]string `json:"table"`
}

// GraphInfo is a read-only description of a compiled topology.
type GraphInfo struct {
	Entry  string      `json:"entry"`
	Nodes  []NodeInfo  `json:"nodes"`
	Edges  []Edge      `json:"edges"`
	Routes []RouteInfo `json:"routes"`
}
