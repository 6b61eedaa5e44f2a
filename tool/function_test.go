package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/logging"
)

func testToolContext(t *testing.T, run *core.Context) *core.ToolContext {
	t.Helper()
	return core.NewToolContext(context.Background(), run, "test-agent", "call-1", t.TempDir(), logging.NoOpLogger{})
}

func TestFunctionToolValidatesArguments(t *testing.T) {
	ft := NewFunctionTool("echo", "echoes", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"message"},
	}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["message"], nil
	})

	tc := testToolContext(t, core.NewContext(nil))

	result, err := ft.Call(tc, map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)

	_, err = ft.Call(tc, map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)

	_, err = ft.Call(tc, map[string]any{"message": 42})
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionToolCatchAllSkipsValidation(t *testing.T) {
	var seen map[string]any
	ft := NewFunctionTool("sink", "accepts anything", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		seen = args
		return "ok", nil
	}, func(o *FunctionToolOptions) { o.CatchAll = true })

	tc := testToolContext(t, core.NewContext(nil))
	_, err := ft.Call(tc, map[string]any{"anything": 1, "reasoning": "because"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"anything": 1, "reasoning": "because"}, seen)
}

func TestFunctionToolWrapsExecutionErrors(t *testing.T) {
	ft := NewFunctionTool("boom", "fails", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(*core.ToolContext, map[string]any) (any, error) {
		return nil, errors.New("disk full")
	})

	_, err := ft.Call(testToolContext(t, core.NewContext(nil)), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "disk full")
}

func TestFunctionToolForwardsToolErrors(t *testing.T) {
	original := NewToolError("boom", "already typed", "LOCK_ERROR")
	ft := NewFunctionTool("boom", "fails", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(*core.ToolContext, map[string]any) (any, error) {
		return nil, original
	})

	_, err := ft.Call(testToolContext(t, core.NewContext(nil)), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Same(t, original, toolErr)
}
