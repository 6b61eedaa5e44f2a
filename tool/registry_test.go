package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecrew/forgecrew/core"
)

func schemaTool(name string, params map[string]any, reasoning bool) *FunctionTool {
	return NewFunctionTool(name, "test tool", params,
		func(*core.ToolContext, map[string]any) (any, error) { return "ok", nil },
		func(o *FunctionToolOptions) { o.RequiresReasoning = reasoning },
	)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(schemaTool("alpha", map[string]any{}, false))
	r.Register(schemaTool("beta", map[string]any{}, false))

	_, ok := r.Get("alpha")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	r.Register(schemaTool("alpha", map[string]any{}, false))
	replacement := schemaTool("alpha", map[string]any{}, true)
	r.Register(replacement)

	got, ok := r.Get("alpha")
	require.True(t, ok)
	assert.True(t, got.RequiresReasoning())
	assert.Equal(t, []string{"alpha"}, r.Names())
}

func TestWireSchemaCoercesUnknownTypes(t *testing.T) {
	tl := schemaTool("t", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "str"},
			"b": map[string]any{"type": "int"},
			"c": map[string]any{"type": "list"},
			"d": map[string]any{"type": "dict"},
			"e": map[string]any{"type": "something_else"},
		},
	}, false)

	def := WireSchema(tl)
	props := def.InputSchema["properties"].(map[string]any)

	assert.Equal(t, "string", props["a"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["b"].(map[string]any)["type"])
	assert.Equal(t, "array", props["c"].(map[string]any)["type"])
	assert.Equal(t, "object", props["d"].(map[string]any)["type"])
	assert.Equal(t, "string", props["e"].(map[string]any)["type"])
}

func TestWireSchemaArrayGetsItems(t *testing.T) {
	tl := schemaTool("t", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"files": map[string]any{"type": "array"},
		},
	}, false)

	props := WireSchema(tl).InputSchema["properties"].(map[string]any)
	items := props["files"].(map[string]any)["items"]
	assert.Equal(t, map[string]any{"type": "string"}, items)
}

func TestWireSchemaObjectGetsAdditionalProperties(t *testing.T) {
	tl := schemaTool("t", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"payload": map[string]any{"type": "object"},
		},
	}, false)

	props := WireSchema(tl).InputSchema["properties"].(map[string]any)
	assert.Equal(t, true, props["payload"].(map[string]any)["additionalProperties"])
}

func TestWireSchemaInjectsReasoning(t *testing.T) {
	tl := schemaTool("t", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "string"},
		},
		"required": []string{"x"},
	}, true)

	def := WireSchema(tl)
	props := def.InputSchema["properties"].(map[string]any)
	require.Contains(t, props, "reasoning")
	assert.Equal(t, "string", props["reasoning"].(map[string]any)["type"])
	assert.Equal(t, []string{"x", "reasoning"}, def.InputSchema["required"])
}

func TestWireSchemaNeverMutatesToolParameters(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"files": map[string]any{"type": "list"},
		},
	}
	tl := schemaTool("t", params, true)

	WireSchema(tl)

	declared := params["properties"].(map[string]any)["files"].(map[string]any)
	assert.Equal(t, "list", declared["type"])
	assert.NotContains(t, declared, "items")
	assert.NotContains(t, params["properties"].(map[string]any), "reasoning")
}

func TestWireSchemasRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(schemaTool("zeta", map[string]any{}, false))
	r.Register(schemaTool("alpha", map[string]any{}, false))

	defs := r.WireSchemas()
	require.Len(t, defs, 2)
	assert.Equal(t, "zeta", defs[0].Name)
	assert.Equal(t, "alpha", defs[1].Name)
}
