/*
Package domain contains the core domain models of the agentloop engine.

It defines the run state and its per-channel merge policy, the messages and
actions exchanged with the reasoning and tool capabilities, the uncompiled graph
definition, the error taxonomy and the lifecycle events. This package is kept
pure and free of I/O.

# Key Entities

  - State: the RunState threaded through one invocation (channels + step counter).
  - Schema: channel -> Reducer. "messages" concatenates, everything else is replaced.
  - Message / Action / ActionResult: conversation entries and capability calls.
  - Graph: nodes, fixed edges and conditional edges, before compilation.
  - End: the terminal sentinel.
*/
package domain
