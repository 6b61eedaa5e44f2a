package tool

import (
	"github.com/forgecrew/forgecrew/internal/util"
	"github.com/forgecrew/forgecrew/model"
)

// Registry holds the set of invocable capabilities and translates each into
// the wire schema the model API expects.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register inserts a tool by name. The last registration for a given name
// wins.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// WireSchemas converts every registered tool into the wire format sent to
// the model API, in registration order.
func (r *Registry) WireSchemas() []model.ToolDefinition {
	out := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, WireSchema(r.tools[name]))
	}
	return out
}

// WireSchema produces the {name, description, input_schema} wire form for
// one tool, enforcing the schema hygiene rules that historically produced
// broken tool declarations:
//
//   - every property type is coerced into the enumerated schema-type set
//     (unknown types become "string" rather than being rejected)
//   - an "array" property always carries an items schema (string items when
//     unspecified)
//   - an "object" property always states whether additional properties are
//     permitted (true when unspecified)
//   - tools that require reasoning get a "reasoning" string property
//     injected and marked required
func WireSchema(t Tool) model.ToolDefinition {
	params := t.Parameters()
	properties := map[string]any{}
	if declared, ok := params["properties"].(map[string]any); ok {
		for name, raw := range declared {
			properties[name] = sanitizeProperty(raw)
		}
	}

	required := requiredList(params)

	if t.RequiresReasoning() {
		if _, declared := properties["reasoning"]; !declared {
			properties["reasoning"] = map[string]any{
				"type":        "string",
				"description": "Why this tool call is necessary",
			}
		}
		if !contains(required, "reasoning") {
			required = append(required, "reasoning")
		}
	}

	return model.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

// sanitizeProperty normalizes one property schema in place of the declared
// one, never mutating the tool's own map.
func sanitizeProperty(raw any) map[string]any {
	prop, ok := raw.(map[string]any)
	if !ok {
		return map[string]any{"type": "string"}
	}

	out := make(map[string]any, len(prop)+1)
	for k, v := range prop {
		out[k] = v
	}

	declaredType, _ := prop["type"].(string)
	out["type"] = util.NormalizeType(declaredType)

	switch out["type"] {
	case "array":
		if _, ok := out["items"]; !ok {
			out["items"] = map[string]any{"type": "string"}
		}
	case "object":
		if _, ok := out["additionalProperties"]; !ok {
			out["additionalProperties"] = true
		}
	}

	return out
}

func requiredList(params map[string]any) []string {
	switch req := params["required"].(type) {
	case []string:
		return append([]string(nil), req...)
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
