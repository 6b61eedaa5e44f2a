package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forgecrew/forgecrew/core"
)

// checkpointTaskTail bounds how much of the completed-task list a periodic
// checkpoint carries. The final context file holds the full history.
const checkpointTaskTail = 10

// AgentOutput summarizes one agent's execution for checkpoints.
type AgentOutput struct {
	Files     int    `json:"files"`
	Rounds    int    `json:"rounds"`
	ToolCalls int    `json:"tool_calls"`
	Result    string `json:"result,omitempty"`
}

// Checkpoint is the periodic progress snapshot written after each completed
// agent or group. The schema is additive-stable: new keys may appear across
// versions, existing ones keep their meaning.
type Checkpoint struct {
	Timestamp       time.Time                `json:"timestamp"`
	CompletedAgents []string                 `json:"completed_agents"`
	FailedAgents    []string                 `json:"failed_agents"`
	CompletedTasks  []core.TaskResult        `json:"completed_tasks"`
	Artifacts       map[string]core.Artifact `json:"artifacts"`
	AgentOutputs    map[string]AgentOutput   `json:"agent_outputs"`
	FileCount       int                      `json:"file_count"`
}

// FinalContext is the superset written once at run end: the checkpoint data
// plus the full context snapshot (file ledger, decision log) and summary.
type FinalContext struct {
	Timestamp time.Time              `json:"timestamp"`
	Summary   *Summary               `json:"summary"`
	Context   core.Snapshot          `json:"context"`
	Outputs   map[string]AgentOutput `json:"agent_outputs"`
}

// checkpoint persists progress; failures are logged, never fatal.
func (o *Orchestrator) checkpoint(run *core.Context) {
	if o.opts.CheckpointPath == "" {
		return
	}

	snap := run.Snapshot()
	tasks := snap.CompletedTasks
	if len(tasks) > checkpointTaskTail {
		tasks = tasks[len(tasks)-checkpointTaskTail:]
	}

	o.mu.Lock()
	cp := Checkpoint{
		Timestamp:       time.Now().UTC(),
		CompletedAgents: keys(o.completed),
		FailedAgents:    keys(o.failed),
		CompletedTasks:  tasks,
		Artifacts:       snap.Artifacts,
		AgentOutputs:    copyOutputs(o.outputs),
		FileCount:       countFiles(snap),
	}
	o.mu.Unlock()

	if err := writeJSON(o.opts.CheckpointPath, cp); err != nil {
		o.logger.Error("orchestrator.checkpoint_failed", "path", o.opts.CheckpointPath, "error", err.Error())
		return
	}
	o.logger.Debug("orchestrator.checkpoint_written", "path", o.opts.CheckpointPath)
}

// writeFinalContext persists the full run state once at the end.
func (o *Orchestrator) writeFinalContext(run *core.Context, summary *Summary) {
	if o.opts.FinalContextPath == "" {
		return
	}

	o.mu.Lock()
	fc := FinalContext{
		Timestamp: time.Now().UTC(),
		Summary:   summary,
		Context:   run.Snapshot(),
		Outputs:   copyOutputs(o.outputs),
	}
	o.mu.Unlock()

	if err := writeJSON(o.opts.FinalContextPath, fc); err != nil {
		o.logger.Error("orchestrator.final_context_failed", "path", o.opts.FinalContextPath, "error", err.Error())
	}
}

// writeJSON writes atomically via a temp file in the target directory.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func copyOutputs(outputs map[string]AgentOutput) map[string]AgentOutput {
	out := make(map[string]AgentOutput, len(outputs))
	for k, v := range outputs {
		out[k] = v
	}
	return out
}

func countFiles(snap core.Snapshot) int {
	n := 0
	for _, records := range snap.CreatedFiles {
		n += len(records)
	}
	return n
}
