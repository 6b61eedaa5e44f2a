package tool

import (
	"fmt"
	"os"
	"strings"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/internal/util"
)

// NewVerifyDeliverablesTool returns the capability that checks a list of
// critical deliverable paths on disk and flags each for verification in the
// run context.
func NewVerifyDeliverablesTool() *FunctionTool {
	return NewFunctionTool(
		"verify_deliverables",
		"Verify that critical deliverable files exist on disk and are non-empty.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"deliverables": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Paths of files that must exist, relative to the project root",
				},
			},
			"required": []string{"deliverables"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			paths := stringSlice(args["deliverables"])
			if len(paths) == 0 {
				return nil, NewToolError("verify_deliverables", "deliverables list is empty", "VALIDATION_ERROR")
			}

			var present, missing []string
			for _, p := range paths {
				tc.Run().AddVerificationRequired(p)
				resolved, err := util.ResolveProjectPath(tc.ProjectRoot(), p)
				if err != nil {
					missing = append(missing, p)
					continue
				}
				info, err := os.Stat(resolved)
				if err != nil || info.Size() == 0 {
					missing = append(missing, p)
					continue
				}
				present = append(present, p)
			}

			if len(missing) == 0 {
				return fmt.Sprintf("All %d deliverables verified.", len(present)), nil
			}
			return fmt.Sprintf("Verified %d of %d deliverables. Missing or empty: %s",
				len(present), len(paths), strings.Join(missing, ", ")), nil
		},
	)
}

// stringSlice tolerates both []string and JSON-decoded []any shapes.
func stringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
