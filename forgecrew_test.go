package forgecrew

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/engine"
	"github.com/forgecrew/forgecrew/model"
	"github.com/forgecrew/forgecrew/tool"
)

func TestCrewRunWithDefaultCrew(t *testing.T) {
	m := model.NewMockModel("scripted")
	for i := 0; i < 6; i++ {
		m.EnqueueText("done")
	}

	dir := t.TempDir()
	crew := New(m, func(o *Options) {
		o.ProjectRoot = filepath.Join(dir, "out")
		o.CheckpointPath = filepath.Join(dir, "checkpoint.json")
		o.FinalContextPath = filepath.Join(dir, "final_context.json")
		o.CallsPerMinute = 0
	})
	crew.DefaultCrew()

	summary, run, err := crew.Run(context.Background(), map[string]any{"name": "demo"})
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.True(t, summary.Success)
	assert.Len(t, summary.Completed, 6)
	assert.Contains(t, summary.Completed, "requirements-analyst")
	assert.Contains(t, summary.Completed, "quality-guardian")
	assert.Equal(t, "finished", run.Phase())

	// The façade seeds the output directory artifact before any agent runs.
	value, ok := run.Artifact("output_directory")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "out"), value)

	assert.FileExists(t, filepath.Join(dir, "checkpoint.json"))
	assert.FileExists(t, filepath.Join(dir, "final_context.json"))
}

func TestCrewRunSequencesDependencies(t *testing.T) {
	m := model.NewMockModel("scripted")
	for i := 0; i < 3; i++ {
		m.EnqueueText("done")
	}

	crew := New(m, func(o *Options) {
		o.ProjectRoot = t.TempDir()
		o.CheckpointPath = ""
		o.FinalContextPath = ""
		o.CallsPerMinute = 0
	})
	crew.Register(engine.AgentSpec{Name: "first", Priority: 1})
	crew.Register(engine.AgentSpec{Name: "second"}, "first")
	crew.Register(engine.AgentSpec{Name: "third"}, "second")

	summary, _, err := crew.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 3, m.CallCount())
}

func TestCrewRegistersBuiltinTools(t *testing.T) {
	crew := New(model.NewMockModel("m"))

	names := crew.Registry().Names()
	for _, want := range []string{
		"write_file", "run_command", "share_artifact", "request_artifact",
		"dependency_check", "verify_deliverables", "record_decision", "complete_task",
	} {
		assert.Contains(t, names, want)
	}
}

func TestCrewExtraToolsRegistered(t *testing.T) {
	extra := tool.NewFunctionTool("custom_probe", "test extension", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(_ *core.ToolContext, _ map[string]any) (any, error) { return "ok", nil })

	crew := New(model.NewMockModel("m"), func(o *Options) {
		o.ExtraTools = []tool.Tool{extra}
	})

	_, ok := crew.Registry().Get("custom_probe")
	assert.True(t, ok)
}
