// Package tool implements the capability subsystem: the Tool interface,
// the Registry that converts registered tools into the wire schema the model
// API expects, the FunctionTool adapter, and the builtin capabilities
// (file writing, artifact sharing, decision recording, verification,
// command execution) that mutate the shared run context.
package tool

import (
	"fmt"

	"github.com/forgecrew/forgecrew/core"
)

// Tool is a named, schema-described capability the model may invoke.
//
// Implementations should provide clear descriptions (the model reads them),
// declare parameter types from the enumerated schema set, handle errors
// gracefully, and be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is shown to the model to guide tool selection.
	Description() string

	// Parameters returns a minimal JSON-schema map describing arguments.
	Parameters() map[string]any

	// RequiresReasoning reports whether a free-text reasoning argument is
	// mandatory for every invocation.
	RequiresReasoning() bool

	// Call executes the tool with repaired, validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
