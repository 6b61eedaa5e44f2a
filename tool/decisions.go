package tool

import (
	"fmt"

	"github.com/forgecrew/forgecrew/core"
)

// NewRecordDecisionTool returns the capability appending to the run's
// decision log. The reasoning parameter is distinct from rationale and is
// preserved as its own field.
func NewRecordDecisionTool() *FunctionTool {
	return NewFunctionTool(
		"record_decision",
		"Record an architectural or implementation decision with its rationale.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"decision": map[string]any{
					"type":        "string",
					"description": "The decision that was made",
				},
				"rationale": map[string]any{
					"type":        "string",
					"description": "Why this decision was made",
				},
			},
			"required": []string{"decision", "rationale"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			decision, _ := args["decision"].(string)
			rationale, _ := args["rationale"].(string)
			reasoning, _ := args["reasoning"].(string)
			tc.Run().AddDecision(decision, rationale, reasoning)
			return fmt.Sprintf("Decision recorded: %s", decision), nil
		},
		func(o *FunctionToolOptions) { o.RequiresReasoning = true },
	)
}

// NewCompleteTaskTool returns the capability an agent calls to mark its
// assigned task finished with a summary.
func NewCompleteTaskTool() *FunctionTool {
	return NewFunctionTool(
		"complete_task",
		"Mark the current task as complete with a summary of what was accomplished.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{
					"type":        "string",
					"description": "What was accomplished",
				},
			},
			"required": []string{"summary"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			summary, _ := args["summary"].(string)
			files := len(tc.Run().AgentFiles(tc.AgentName()))
			tc.Run().AddCompletedTask(core.DetailedTask(
				fmt.Sprintf("%s: %s", tc.AgentName(), summary),
				"completed",
				files,
			))
			return "Task marked complete.", nil
		},
	)
}
