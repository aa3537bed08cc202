/*
Package agentloop is a directed-graph execution engine for agent loops: a
reasoning step decides what to do next, a tool step carries out the requested
actions, and the two take turns over a shared, append-only conversation until
the reasoner answers without asking for anything.

# Concept

A graph is a set of named nodes joined by edges. Each node reads the current
state and returns a fragment; the engine merges the fragment into the state
using the reducer declared for each channel (the "messages" channel always
appends). After every merge the router picks the next node, either along a fixed
edge or by mapping the label returned from a routing function through a table
fixed at compile time. Routing to domain.End finishes the run.

Graphs are validated once, when New or NewAgent compiles them, and are
immutable afterwards. One Engine serves any number of concurrent runs.

# Key Features

  - Compile-time validation: undeclared targets, missing routing labels and reserved names are rejected before anything runs.
  - Step ceiling and cancellation: runs that never converge stop with StepLimitExceeded or the context's error.
  - Concurrent tool fan-out: the actions of one turn run in parallel, their results are appended in request order.
  - Per-action timeouts: a slow tool yields a failed result instead of blocking the run.
  - Streaming: Stream yields one event per node execution.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"time"

		"github.com/isaid22/agentloop"
		"github.com/isaid22/agentloop/pkg/registry"
	)

	func main() {
		tools := registry.NewRegistry()
		tools.Register("search", search)

		eng, err := agentloop.NewAgent(myReasoner, tools)
		if err != nil {
			log.Fatal(err)
		}

		state, err := eng.Invoke(context.Background(), "What is the weather in Paris?",
			agentloop.WithStepLimit(20),
			agentloop.WithActionTimeout(10*time.Second),
		)
		if err != nil {
			log.Fatal(err)
		}

		answer, _ := agentloop.Answer(state)
		fmt.Println(answer)
	}

For custom topologies build a domain.Graph with the dsl package and pass it to New.
*/
package agentloop
