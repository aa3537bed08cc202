package dsl

import (
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/nodes"
	"github.com/isaid22/agentloop/pkg/ports"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder

	next   string
	router *domain.Router
	table  map[string]string
}

// Do sets a custom body for the node.
func (n *NodeBuilder) Do(fn domain.NodeFunc) *NodeBuilder {
	n.node.Run = fn
	return n
}

// Reason makes this a reasoning node backed by r.
func (n *NodeBuilder) Reason(r ports.Reasoner, opts ...nodes.ReasoningOption) *NodeBuilder {
	n.node.Kind = domain.NodeKindReasoning
	n.node.Run = nodes.Reasoning(r, opts...)
	return n
}

// Tools makes this a tool node backed by exec.
func (n *NodeBuilder) Tools(exec ports.ToolExecutor, opts ...nodes.ToolOption) *NodeBuilder {
	n.node.Kind = domain.NodeKindTools
	n.node.Run = nodes.Tools(exec, opts...)
	return n
}

// Kind overrides the introspection label of the node.
func (n *NodeBuilder) Kind(kind string) *NodeBuilder {
	n.node.Kind = kind
	return n
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.next = target
	return n
}

// Route adds a conditional transition: after the node runs, router picks a
// label and table maps it to the next node (or domain.End).
func (n *NodeBuilder) Route(router domain.Router, table map[string]string) *NodeBuilder {
	n.router = &router
	if n.table == nil {
		n.table = make(map[string]string, len(table))
	}
	for label, target := range table {
		n.table[label] = target
	}
	return n
}

// Branch maps one routing label to a target.
func (n *NodeBuilder) Branch(label string, target string) *NodeBuilder {
	if n.table == nil {
		n.table = make(map[string]string)
	}
	n.table[label] = target
	return n
}

// Terminal marks the node as the last one of the flow.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.next = domain.End
	n.router = nil
	n.table = nil
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
