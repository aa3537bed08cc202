/*
Package observability provides lifecycle hooks for monitoring the agentloop engine.

Metrics records node visits, node and tool durations and run outcomes in
Prometheus collectors. LogHooks writes the same events to a structured logger,
masking sensitive tool arguments with Redact.
Both return domain.LifecycleHooks and can be combined with domain.ComposeHooks.
*/
package observability
