/*
Package dsl provides a fluent builder for agentloop graphs.

Graphs are described once, in Go, and handed to the engine as an immutable
definition. Nothing is executed or validated while building; the engine checks
the whole topology when it compiles the result of Build.

Example usage:

	b := dsl.New()

	b.Add("agent").
		Reason(reasoner).
		Route(nodes.ActionRouter(), map[string]string{
			nodes.LabelTools: "tools",
			nodes.LabelEnd:   domain.End,
		})

	b.Add("tools").
		Tools(executor, nodes.WithMaxConcurrency(8)).
		Go("agent")

	graph, err := b.Build()
	// ... pass graph to agentloop.New(graph)
*/
package dsl
