package tool

import (
	"encoding/json"
	"fmt"

	"github.com/forgecrew/forgecrew/core"
)

// NewShareArtifactTool returns the capability that publishes structured data
// for downstream agents under a category key.
func NewShareArtifactTool() *FunctionTool {
	return NewFunctionTool(
		"share_artifact",
		"Share structured data (schemas, endpoints, configuration) with downstream agents under a category key.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "Artifact key downstream agents will request, e.g. database_schema",
				},
				"content": map[string]any{
					"type":        "object",
					"description": "The artifact payload",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Optional human-readable summary",
				},
			},
			"required": []string{"category", "content"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			category, _ := args["category"].(string)
			if category == "" {
				category = "general"
			}
			tc.Run().SetArtifact(category, args["content"], tc.AgentName())
			return fmt.Sprintf("Artifact shared under key %q", category), nil
		},
		func(o *FunctionToolOptions) { o.RequiresReasoning = true },
	)
}

// NewRequestArtifactTool returns the read-side capability resolving an
// artifact key to its stored value.
func NewRequestArtifactTool() *FunctionTool {
	return NewFunctionTool(
		"request_artifact",
		"Retrieve an artifact previously shared by another agent.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "Artifact key to look up",
				},
			},
			"required": []string{"key"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			key, _ := args["key"].(string)
			value, ok := tc.Run().Artifact(key)
			if !ok {
				return fmt.Sprintf("No artifact found under key %q. Available keys: %v",
					key, tc.Run().ArtifactKeys()), nil
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Sprintf("%v", value), nil
			}
			return string(encoded), nil
		},
	)
}

// NewDependencyCheckTool returns the capability reporting whether the
// invoking agent's declared artifact dependencies are satisfied.
func NewDependencyCheckTool() *FunctionTool {
	return NewFunctionTool(
		"dependency_check",
		"Check whether every artifact this agent declared as a prerequisite is available.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			satisfied, missing := tc.Run().CheckDependencies(tc.AgentName())
			if satisfied {
				return "All declared dependencies are satisfied.", nil
			}
			return fmt.Sprintf("Missing artifact keys: %v", missing), nil
		},
	)
}
