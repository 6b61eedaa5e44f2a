package tool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/forgecrew/forgecrew/core"
)

const maxCommandOutput = 4096

// RunCommandTool executes a shell command under the project root with a
// bounded timeout, returning truncated combined output.
type RunCommandTool struct {
	timeout time.Duration
}

// NewRunCommandTool constructs the command-execution capability.
// timeout <= 0 defaults to 60 seconds.
func NewRunCommandTool(timeout time.Duration) *RunCommandTool {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RunCommandTool{timeout: timeout}
}

// Name implements Tool.
func (t *RunCommandTool) Name() string { return "run_command" }

// Description implements Tool.
func (t *RunCommandTool) Description() string {
	return "Run a shell command in the project directory and return its output."
}

// Parameters implements Tool.
func (t *RunCommandTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
		},
		"required": []string{"command"},
	}
}

// RequiresReasoning implements Tool.
func (t *RunCommandTool) RequiresReasoning() bool { return true }

// Call executes the command, feeding the exit status and output tail back to
// the model. A non-zero exit is reported in the result, not as a tool error,
// so the model can react to it.
func (t *RunCommandTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	command, _ := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return nil, NewToolError(t.Name(), "command is required", "VALIDATION_ERROR")
	}

	ctx, cancel := context.WithTimeout(toolCtx.Context(), t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = toolCtx.ProjectRoot()
	output, err := cmd.CombinedOutput()

	tail := string(output)
	if len(tail) > maxCommandOutput {
		tail = "...(truncated)...\n" + tail[len(tail)-maxCommandOutput:]
	}

	toolCtx.Logger().Info("tool.run_command",
		"agent", toolCtx.AgentName(),
		"command", command,
		"error", err != nil,
	)

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Command timed out after %s.\nOutput:\n%s", t.timeout, tail), nil
	}
	if err != nil {
		return fmt.Sprintf("Command failed: %v\nOutput:\n%s", err, tail), nil
	}
	return fmt.Sprintf("Command succeeded.\nOutput:\n%s", tail), nil
}
