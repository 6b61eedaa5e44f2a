package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/engine"
)

// stubExecutor returns scripted outcomes and records execution order.
type stubExecutor struct {
	mu        sync.Mutex
	order     []string
	inFlight  int
	maxSeen   int
	fail      map[string]bool
	delay     time.Duration
	onExecute func(name string, run *core.Context)
}

func (s *stubExecutor) Execute(_ context.Context, spec engine.AgentSpec, run *core.Context) engine.Outcome {
	s.mu.Lock()
	s.order = append(s.order, spec.Name)
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.onExecute != nil {
		s.onExecute(spec.Name, run)
	}

	s.mu.Lock()
	s.inFlight--
	failed := s.fail[spec.Name]
	s.mu.Unlock()

	if failed {
		return engine.Outcome{Agent: spec.Name, Err: errors.New("model unavailable")}
	}
	return engine.Outcome{Agent: spec.Name, Success: true, Rounds: 1}
}

func (s *stubExecutor) executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func registerChain(o *Orchestrator) {
	o.Register(engine.AgentSpec{Name: "A", Priority: 3})
	o.Register(engine.AgentSpec{Name: "B", Priority: 2}, "A")
	o.Register(engine.AgentSpec{Name: "C", Priority: 1}, "B")
}

func TestRunExecutesChainInDependencyOrder(t *testing.T) {
	exec := &stubExecutor{}
	o := New(exec)
	registerChain(o)

	run := core.NewContext(nil)
	summary, err := o.Run(context.Background(), run)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, exec.executed())
	assert.True(t, summary.Success)
	assert.Equal(t, []string{"A", "B", "C"}, summary.Completed)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, "finished", run.Phase())
}

func TestRunFailureBlocksDependents(t *testing.T) {
	exec := &stubExecutor{fail: map[string]bool{"A": true}}
	o := New(exec)
	registerChain(o)

	summary, err := o.Run(context.Background(), core.NewContext(nil))

	// Blocked-by-failure is a reportable partial result, not a run error.
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, exec.executed())
	assert.False(t, summary.Success)
	assert.Equal(t, []string{"A"}, summary.Failed)
	assert.Contains(t, summary.Failures["A"], "model unavailable")
	assert.Empty(t, summary.Completed)
}

func TestRunMidChainFailure(t *testing.T) {
	exec := &stubExecutor{fail: map[string]bool{"B": true}}
	o := New(exec)
	registerChain(o)

	summary, err := o.Run(context.Background(), core.NewContext(nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, exec.executed())
	assert.Equal(t, []string{"A"}, summary.Completed)
	assert.Equal(t, []string{"B"}, summary.Failed)
	assert.False(t, summary.Success)
}

func TestRunParallelGroupExecutesConcurrently(t *testing.T) {
	exec := &stubExecutor{delay: 50 * time.Millisecond}
	o := New(exec)
	o.Register(engine.AgentSpec{Name: "A"})
	o.Register(engine.AgentSpec{Name: "B"}, "A")
	o.Register(engine.AgentSpec{Name: "C"}, "A")
	o.Group("B", "C")

	summary, err := o.Run(context.Background(), core.NewContext(nil))
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, exec.executed())
	assert.Equal(t, 2, exec.maxSeen)
}

func TestRunInvalidGraph(t *testing.T) {
	o := New(&stubExecutor{})
	o.Register(engine.AgentSpec{Name: "B"}, "A")

	summary, err := o.Run(context.Background(), core.NewContext(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered")
	require.NotNil(t, summary)
	assert.False(t, summary.Success)
}

func TestRunCancelledContext(t *testing.T) {
	o := New(&stubExecutor{})
	registerChain(o)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := o.Run(ctx, core.NewContext(nil))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Empty(t, summary.Completed)
}

func TestRunWritesCheckpointAndFinalContext(t *testing.T) {
	dir := t.TempDir()
	checkpointPath := filepath.Join(dir, "checkpoint.json")
	finalPath := filepath.Join(dir, "final_context.json")

	exec := &stubExecutor{onExecute: func(name string, run *core.Context) {
		run.AddCompletedTask(core.DetailedTask(name, "completed", 1))
		run.AddCreatedFile(name, name+".py", "code", false)
	}}
	o := New(exec, func(opt *Options) {
		opt.CheckpointPath = checkpointPath
		opt.FinalContextPath = finalPath
	})
	registerChain(o)

	summary, err := o.Run(context.Background(), core.NewContext(map[string]any{"name": "demo"}))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.FileCount)

	data, err := os.ReadFile(checkpointPath)
	require.NoError(t, err)
	var cp Checkpoint
	require.NoError(t, json.Unmarshal(data, &cp))
	assert.Equal(t, []string{"A", "B", "C"}, cp.CompletedAgents)
	assert.Empty(t, cp.FailedAgents)
	assert.Equal(t, 3, cp.FileCount)
	assert.Len(t, cp.CompletedTasks, 3)
	assert.Contains(t, cp.AgentOutputs, "A")

	data, err = os.ReadFile(finalPath)
	require.NoError(t, err)
	var fc FinalContext
	require.NoError(t, json.Unmarshal(data, &fc))
	require.NotNil(t, fc.Summary)
	assert.True(t, fc.Summary.Success)
	assert.Len(t, fc.Context.CreatedFiles, 3)
}

func TestCheckpointTruncatesTaskHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")

	o := New(&stubExecutor{}, func(opt *Options) { opt.CheckpointPath = path })
	run := core.NewContext(nil)
	for i := 0; i < checkpointTaskTail+5; i++ {
		run.AddCompletedTask(core.SimpleTask("task"))
	}

	o.checkpoint(run)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cp Checkpoint
	require.NoError(t, json.Unmarshal(data, &cp))
	assert.Len(t, cp.CompletedTasks, checkpointTaskTail)
}

func TestWriteJSONAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, writeJSON(path, map[string]any{"v": 1}))
	require.NoError(t, writeJSON(path, map[string]any{"v": 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(2), out["v"])

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
