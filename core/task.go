package core

import (
	"encoding/json"
	"time"
)

// TaskResult is the normalized completed-task record. Historically the
// completed-task list mixed bare name strings with richer result objects;
// every write site now produces the detailed form, and UnmarshalJSON keeps
// accepting the bare-string shape so old checkpoints still load.
type TaskResult struct {
	Name      string    `json:"name"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	FileCount int       `json:"file_count,omitempty"`

	// Detailed distinguishes a record that carried structure from one parsed
	// out of a legacy bare string.
	Detailed bool `json:"-"`
}

// SimpleTask wraps a bare task name in the normalized form.
func SimpleTask(name string) TaskResult {
	return TaskResult{Name: name}
}

// DetailedTask records a task outcome with status and file count.
func DetailedTask(name, status string, fileCount int) TaskResult {
	return TaskResult{
		Name:      name,
		Status:    status,
		Timestamp: time.Now().UTC(),
		FileCount: fileCount,
		Detailed:  true,
	}
}

// UnmarshalJSON accepts either a bare string or the object form.
func (t *TaskResult) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = TaskResult{Name: name}
		return nil
	}

	type alias TaskResult
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = TaskResult(a)
	// A timestamp alone does not make a record detailed; simple entries get
	// stamped on append too.
	t.Detailed = t.Status != "" || t.FileCount > 0

	return nil
}

// Decision is one append-only entry in the run's decision log. Rationale is
// the short justification; Reasoning carries the model's free-text chain
// when the recording tool demanded one.
type Decision struct {
	Decision  string    `json:"decision"`
	Rationale string    `json:"rationale"`
	Reasoning string    `json:"reasoning,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FileRecord is one entry in the per-agent created-file ledger.
type FileRecord struct {
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Verified  bool      `json:"verified"`
	Timestamp time.Time `json:"timestamp"`
}

// IncompleteTask records a task an agent could not finish, with the reason.
// Entries are never removed.
type IncompleteTask struct {
	Agent     string    `json:"agent"`
	Task      string    `json:"task"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Artifact is the wrapped form of a shared artifact value. Legacy snapshots
// sometimes stored the raw value directly; UnmarshalJSON accepts both.
type Artifact struct {
	Value     any       `json:"value"`
	SharedBy  string    `json:"shared_by,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts either the wrapped record or a raw value.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	type alias Artifact
	var wrapped alias
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Value != nil {
		*a = Artifact(wrapped)
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Artifact{Value: raw}

	return nil
}
