/*
Package ports defines the driven ports (interfaces) of the agentloop engine.

These interfaces decouple the graph engine from concrete providers, so hosted
models, search APIs or local scripts can be plugged in, and mocked in tests.

# Key Interfaces

  - Reasoner: maps the ordered conversation to the next assistant message.
  - ToolExecutor: executes one requested Action and returns its ActionResult.
  - ResultCache: optional memoization of tool results (memory, Redis).
*/
package ports
