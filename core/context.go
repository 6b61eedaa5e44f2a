package core

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// Context is the single shared state record threaded through every agent
// invocation of an orchestration run: project requirements, the completed
// and incomplete task lists, shared artifacts, the decision log, the
// per-agent created-file ledger and cross-agent dependency declarations.
//
// The record is write-once-append, read-many: nothing is ever deleted, the
// completed-task list only grows. One Context lives for the whole run and is
// mutated in place by each agent execution.
type Context struct {
	mu sync.RWMutex

	requirements map[string]any // read-only after construction

	completedTasks       []TaskResult
	artifacts            map[string]Artifact
	decisions            []Decision
	currentPhase         string
	createdFiles         map[string][]FileRecord
	fileOrder            []string // agents in first-write order, for stable iteration
	verificationRequired []string
	agentDependencies    map[string][]string
	incompleteTasks      []IncompleteTask

	strictDeps bool
}

// ContextOptions configures Context construction.
type ContextOptions struct {
	// StrictDependencies requires an exact artifact-key match in
	// CheckDependencies instead of the historical loose behavior that also
	// accepts a key appearing as a substring of any created-file path.
	StrictDependencies bool
}

// NewContext creates a run context seeded with immutable project requirements.
func NewContext(requirements map[string]any, optFns ...func(o *ContextOptions)) *Context {
	opts := ContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	reqs := make(map[string]any, len(requirements))
	for k, v := range requirements {
		reqs[k] = v
	}

	return &Context{
		requirements:      reqs,
		artifacts:         map[string]Artifact{},
		createdFiles:      map[string][]FileRecord{},
		agentDependencies: map[string][]string{},
		strictDeps:        opts.StrictDependencies,
	}
}

// Requirement returns a single requirement value by key.
func (c *Context) Requirement(key string) (any, bool) {
	v, ok := c.requirements[key]
	return v, ok
}

// Requirements returns a copy of the project requirements.
func (c *Context) Requirements() map[string]any {
	out := make(map[string]any, len(c.requirements))
	for k, v := range c.requirements {
		out[k] = v
	}
	return out
}

// AddCompletedTask appends a task result. Entries are never removed.
func (c *Context) AddCompletedTask(t TaskResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	c.completedTasks = append(c.completedTasks, t)
}

// CompletedTasks returns a defensive copy of the completed-task list.
func (c *Context) CompletedTasks() []TaskResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]TaskResult(nil), c.completedTasks...)
}

// SetArtifact stores a value under key, wrapped with provenance. Overwrites
// any previous value for the key.
func (c *Context) SetArtifact(key string, value any, sharedBy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifacts[key] = Artifact{Value: value, SharedBy: sharedBy, Timestamp: time.Now().UTC()}
}

// Artifact returns the raw value stored under key.
func (c *Context) Artifact(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.artifacts[key]
	if !ok {
		return nil, false
	}
	return a.Value, true
}

// ArtifactKeys returns the sorted set of artifact keys.
func (c *Context) ArtifactKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.artifacts))
	for k := range c.artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddDecision appends to the decision log.
func (c *Context) AddDecision(decision, rationale, reasoning string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions = append(c.decisions, Decision{
		Decision:  decision,
		Rationale: rationale,
		Reasoning: reasoning,
		Timestamp: time.Now().UTC(),
	})
}

// Decisions returns a defensive copy of the decision log.
func (c *Context) Decisions() []Decision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Decision(nil), c.decisions...)
}

// SetPhase updates the free-text orchestration stage label.
func (c *Context) SetPhase(phase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentPhase = phase
}

// Phase returns the current orchestration stage label.
func (c *Context) Phase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentPhase
}

// AddCreatedFile appends a file record to the agent's ledger.
func (c *Context) AddCreatedFile(agent, path, fileType string, verified bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.createdFiles[agent]; !seen {
		c.fileOrder = append(c.fileOrder, agent)
	}
	c.createdFiles[agent] = append(c.createdFiles[agent], FileRecord{
		Path:      path,
		Type:      fileType,
		Verified:  verified,
		Timestamp: time.Now().UTC(),
	})
}

// AgentFiles returns the file records created by one agent, empty (not an
// error) for an unknown agent.
func (c *Context) AgentFiles(agent string) []FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]FileRecord(nil), c.createdFiles[agent]...)
}

// AllFiles flattens every created-file path across all agents, in
// first-write agent order.
func (c *Context) AllFiles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var paths []string
	for _, agent := range c.fileOrder {
		for _, rec := range c.createdFiles[agent] {
			paths = append(paths, rec.Path)
		}
	}
	return paths
}

// AddVerificationRequired flags a path as a critical deliverable. Idempotent.
func (c *Context) AddVerificationRequired(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.verificationRequired {
		if p == path {
			return
		}
	}
	c.verificationRequired = append(c.verificationRequired, path)
}

// VerificationRequired returns the flagged deliverable paths.
func (c *Context) VerificationRequired() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.verificationRequired...)
}

// AddIncompleteTask records a failure entry. Entries are never removed.
func (c *Context) AddIncompleteTask(agent, task, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incompleteTasks = append(c.incompleteTasks, IncompleteTask{
		Agent:     agent,
		Task:      task,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// IncompleteTasks returns a defensive copy of the failure records.
func (c *Context) IncompleteTasks() []IncompleteTask {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]IncompleteTask(nil), c.incompleteTasks...)
}

// SetAgentDependency declares the artifact keys an agent requires before
// running. Overwrite, not merge.
func (c *Context) SetAgentDependency(agent string, requiredKeys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agentDependencies[agent] = append([]string(nil), requiredKeys...)
}

// AgentDependency returns the declared artifact keys for an agent.
func (c *Context) AgentDependency(agent string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.agentDependencies[agent]...)
}

// CheckDependencies reports whether every artifact key the agent declared is
// satisfied, and which keys are missing. In the default (loose) mode a key
// is satisfied if it is present in artifacts or appears as a substring of
// any created-file path; in strict mode only an exact artifact-key match
// counts.
func (c *Context) CheckDependencies(agent string) (bool, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	for _, key := range c.agentDependencies[agent] {
		if _, ok := c.artifacts[key]; ok {
			continue
		}
		if !c.strictDeps && c.pathContains(key) {
			continue
		}
		missing = append(missing, key)
	}

	return len(missing) == 0, missing
}

// pathContains reports whether key occurs as a substring of any ledger path.
// Callers must hold at least a read lock.
func (c *Context) pathContains(key string) bool {
	for _, records := range c.createdFiles {
		for _, rec := range records {
			if strings.Contains(rec.Path, key) {
				return true
			}
		}
	}
	return false
}

// Snapshot is the JSON-safe projection of a Context. Field names follow the
// on-disk checkpoint schema.
type Snapshot struct {
	ProjectRequirements  map[string]any          `json:"project_requirements"`
	CompletedTasks       []TaskResult            `json:"completed_tasks"`
	Artifacts            map[string]Artifact     `json:"artifacts"`
	Decisions            []Decision              `json:"decisions"`
	CurrentPhase         string                  `json:"current_phase"`
	CreatedFiles         map[string][]FileRecord `json:"created_files"`
	VerificationRequired []string                `json:"verification_required"`
	AgentDependencies    map[string][]string     `json:"agent_dependencies"`
	IncompleteTasks      []IncompleteTask        `json:"incomplete_tasks"`
}

// Snapshot produces a fully JSON-safe copy of the context state.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		ProjectRequirements:  map[string]any{},
		CompletedTasks:       append([]TaskResult(nil), c.completedTasks...),
		Artifacts:            map[string]Artifact{},
		Decisions:            append([]Decision(nil), c.decisions...),
		CurrentPhase:         c.currentPhase,
		CreatedFiles:         map[string][]FileRecord{},
		VerificationRequired: append([]string(nil), c.verificationRequired...),
		AgentDependencies:    map[string][]string{},
		IncompleteTasks:      append([]IncompleteTask(nil), c.incompleteTasks...),
	}
	for k, v := range c.requirements {
		snap.ProjectRequirements[k] = v
	}
	for k, v := range c.artifacts {
		snap.Artifacts[k] = v
	}
	for agent, records := range c.createdFiles {
		snap.CreatedFiles[agent] = append([]FileRecord(nil), records...)
	}
	for agent, keys := range c.agentDependencies {
		snap.AgentDependencies[agent] = append([]string(nil), keys...)
	}

	return snap
}

// MarshalJSON serializes the context via its snapshot.
func (c *Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// FromSnapshot rebuilds a Context from a previously serialized snapshot.
func FromSnapshot(snap Snapshot, optFns ...func(o *ContextOptions)) *Context {
	c := NewContext(snap.ProjectRequirements, optFns...)
	c.completedTasks = append([]TaskResult(nil), snap.CompletedTasks...)
	for k, v := range snap.Artifacts {
		c.artifacts[k] = v
	}
	c.decisions = append([]Decision(nil), snap.Decisions...)
	c.currentPhase = snap.CurrentPhase
	agents := make([]string, 0, len(snap.CreatedFiles))
	for agent := range snap.CreatedFiles {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	for _, agent := range agents {
		c.createdFiles[agent] = append([]FileRecord(nil), snap.CreatedFiles[agent]...)
		c.fileOrder = append(c.fileOrder, agent)
	}
	c.verificationRequired = append([]string(nil), snap.VerificationRequired...)
	for agent, keys := range snap.AgentDependencies {
		c.agentDependencies[agent] = append([]string(nil), keys...)
	}
	c.incompleteTasks = append([]IncompleteTask(nil), snap.IncompleteTasks...)
	return c
}
