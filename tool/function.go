package tool

import (
	"fmt"
	"time"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/internal/util"
)

// FunctionTool is a generic adapter exposing a plain Go function as a Tool.
//
// In the default mode arguments are validated against the declared schema
// before execution. A tool constructed with WithCatchAll skips validation
// and forwards the entire repaired argument map unchanged, including the
// reasoning field. That is the adaptation mode for functions taking a
// single argument sink.
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name              string
	description       string
	parameters        map[string]any
	requiresReasoning bool
	catchAll          bool
	fn                func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// FunctionToolOptions configures optional FunctionTool behavior.
type FunctionToolOptions struct {
	// RequiresReasoning injects a mandatory reasoning parameter into the
	// wire schema.
	RequiresReasoning bool
	// CatchAll disables schema validation and forwards all arguments.
	CatchAll bool
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	opts := FunctionToolOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}
	return &FunctionTool{
		name:              name,
		description:       description,
		parameters:        parameters,
		requiresReasoning: opts.RequiresReasoning,
		catchAll:          opts.CatchAll,
		fn:                fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection, equivalent to util.CreateSchema(structType).
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn, optFns...)
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// RequiresReasoning reports whether a reasoning argument is mandatory.
func (t *FunctionTool) RequiresReasoning() bool { return t.requiresReasoning }

// Call validates the provided args against the declared schema (unless in
// catch-all mode) then invokes the underlying function. Failures are wrapped
// as *ToolError with consistent codes:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> VALIDATION_ERROR
//	other error                     -> EXECUTION_ERROR
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "call_id", toolCtx.CallID())

	if !t.catchAll {
		if err := util.ValidateParameters(args, t.parameters); err != nil {
			logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
			return nil, &ToolError{
				Tool:    t.name,
				Message: fmt.Sprintf("parameter validation failed: %v", err),
				Code:    "VALIDATION_ERROR",
				Details: err,
			}
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
			return nil, toolErr
		}
		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: "EXECUTION_ERROR"}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
