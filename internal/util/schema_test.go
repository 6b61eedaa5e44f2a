package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeType(t *testing.T) {
	tests := map[string]string{
		"str":     "string",
		"text":    "string",
		"int":     "integer",
		"float":   "number",
		"double":  "number",
		"bool":    "boolean",
		"list":    "array",
		"dict":    "object",
		"map":     "object",
		"string":  "string",
		"array":   "array",
		"  STR ":  "string",
		"custom":  "string",
		"unknown": "string",
		"":        "string",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeType(in), in)
	}
}

func TestValidateParametersRequired(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}

	require.NoError(t, ValidateParameters(map[string]any{"name": "x"}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestValidateParametersTypes(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count":   map[string]any{"type": "integer"},
			"ratio":   map[string]any{"type": "number"},
			"active":  map[string]any{"type": "boolean"},
			"tags":    map[string]any{"type": "array"},
			"payload": map[string]any{"type": "object"},
		},
	}

	require.NoError(t, ValidateParameters(map[string]any{
		"count":   float64(3), // JSON decoding yields float64
		"ratio":   1.5,
		"active":  true,
		"tags":    []any{"a"},
		"payload": map[string]any{"k": "v"},
	}, schema))

	// A fractional value is not an integer.
	err := ValidateParameters(map[string]any{"count": 3.5}, schema)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "count", verr.Field)

	assert.Error(t, ValidateParameters(map[string]any{"active": "yes"}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"tags": "a,b"}, schema))
}

func TestValidateParametersExtraFieldsPass(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	assert.NoError(t, ValidateParameters(map[string]any{"reasoning": "because"}, schema))
}

func TestValidateParametersRequiredAsAnySlice(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []any{"key"},
	}
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"key": "v"}, schema))
}

func TestCreateSchemaFromStruct(t *testing.T) {
	type input struct {
		Name    string   `json:"name" description:"The name"`
		Count   int      `json:"count"`
		Tags    []string `json:"tags,omitempty"`
		Hidden  string   `json:"-"`
		Comment *string  `json:"comment"`
	}

	schema := CreateSchema(input{})
	props := schema["properties"].(map[string]any)

	assert.Equal(t, "string", props["name"].(map[string]any)["type"])
	assert.Equal(t, "The name", props["name"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["count"].(map[string]any)["type"])
	assert.Equal(t, "array", props["tags"].(map[string]any)["type"])
	assert.NotContains(t, props, "Hidden")
	assert.NotContains(t, props, "-")

	// Pointer and omitempty fields are optional.
	assert.ElementsMatch(t, []string{"name", "count"}, schema["required"])
}
