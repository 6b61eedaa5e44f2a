// Package core contains the shared data model threaded through an
// orchestration run: the mutable run Context (requirements, task results,
// artifacts, decisions, file ledger, dependency declarations), the
// ToolContext handed to tool implementations, and the rolling-window rate
// limiter used by the execution engine.
//
// The Context is the only shared mutable resource in the system. All of its
// methods are safe for concurrent use; each method is a single atomic
// mutation, which is what the orchestrator's single-writer-per-agent
// discipline relies on when a parallel group runs.
package core
