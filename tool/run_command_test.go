package tool

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecrew/forgecrew/core"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunCommandSuccess(t *testing.T) {
	skipWithoutShell(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi"), 0o644))

	rc := NewRunCommandTool(0)
	result, err := rc.Call(toolContextAt(core.NewContext(nil), "quality-guardian", root), map[string]any{
		"command": "ls",
	})
	require.NoError(t, err)
	text := result.(string)
	assert.Contains(t, text, "Command succeeded")
	assert.Contains(t, text, "hello.txt")
}

func TestRunCommandNonZeroExitIsReportedNotFailed(t *testing.T) {
	skipWithoutShell(t)

	rc := NewRunCommandTool(0)
	result, err := rc.Call(toolContextAt(core.NewContext(nil), "agent", t.TempDir()), map[string]any{
		"command": "exit 3",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "Command failed")
}

func TestRunCommandTimeout(t *testing.T) {
	skipWithoutShell(t)

	rc := NewRunCommandTool(50 * time.Millisecond)
	result, err := rc.Call(toolContextAt(core.NewContext(nil), "agent", t.TempDir()), map[string]any{
		"command": "sleep 5",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "timed out")
}

func TestRunCommandRequiresCommand(t *testing.T) {
	rc := NewRunCommandTool(0)
	_, err := rc.Call(toolContextAt(core.NewContext(nil), "agent", t.TempDir()), map[string]any{
		"command": "   ",
	})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}
