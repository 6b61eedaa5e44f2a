package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/internal/util"
	"github.com/forgecrew/forgecrew/locks"
)

// WriteFileTool writes a file under the project root and records it in the
// invoking agent's created-file ledger. Relative, /project/-prefixed and
// bare-absolute paths all normalize into the same root.
type WriteFileTool struct {
	locks       *locks.Manager
	lockTimeout time.Duration
}

// WriteFileOptions configures the write-file tool.
type WriteFileOptions struct {
	// Locks enables advisory per-path locking for parallel agent groups.
	Locks *locks.Manager
	// LockTimeout bounds the wait for a contended path.
	LockTimeout time.Duration
}

// NewWriteFileTool constructs the write-file capability.
func NewWriteFileTool(optFns ...func(o *WriteFileOptions)) *WriteFileTool {
	opts := WriteFileOptions{LockTimeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WriteFileTool{locks: opts.Locks, lockTimeout: opts.LockTimeout}
}

// Name implements Tool.
func (t *WriteFileTool) Name() string { return "write_file" }

// Description implements Tool.
func (t *WriteFileTool) Description() string {
	return "Write a file to the project. Creates parent directories as needed and records the file in the run ledger."
}

// Parameters implements Tool.
func (t *WriteFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path of the file, relative to the project root",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Complete file content. Never leave this empty or filled with placeholders.",
			},
		},
		"required": []string{"file_path", "content"},
	}
}

// RequiresReasoning implements Tool.
func (t *WriteFileTool) RequiresReasoning() bool { return true }

// Call writes the file and appends a ledger record.
func (t *WriteFileTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	rawPath, _ := args["file_path"].(string)
	content, _ := args["content"].(string)
	if rawPath == "" {
		return nil, NewToolError(t.Name(), "file_path is required", "VALIDATION_ERROR")
	}

	resolved, err := util.ResolveProjectPath(toolCtx.ProjectRoot(), rawPath)
	if err != nil {
		return nil, NewToolError(t.Name(), err.Error(), "VALIDATION_ERROR")
	}

	if t.locks != nil {
		release, err := t.locks.Acquire(toolCtx.Context(), resolved, t.lockTimeout)
		if err != nil {
			return nil, NewToolError(t.Name(), err.Error(), "LOCK_ERROR")
		}
		defer release()
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", resolved, err)
	}

	toolCtx.Run().AddCreatedFile(toolCtx.AgentName(), rawPath, util.FileTypeForPath(rawPath), false)

	toolCtx.Logger().Info("tool.write_file",
		"agent", toolCtx.AgentName(),
		"path", rawPath,
		"bytes", len(content),
	)

	return fmt.Sprintf("Wrote %d bytes to %s", len(content), rawPath), nil
}
