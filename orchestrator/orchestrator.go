// Package orchestrator implements the top-level control loop: it repeatedly
// asks the dependency graph for ready agents, executes them sequentially or
// in bounded parallel groups, updates the completed/failed sets, checkpoints
// progress to disk, and terminates on completion, blocked-by-failure,
// deadlock or iteration-budget exhaustion.
package orchestrator

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/engine"
	"github.com/forgecrew/forgecrew/graph"
	"github.com/forgecrew/forgecrew/logging"
)

// Executor abstracts the execution engine so tests can substitute outcomes.
type Executor interface {
	Execute(ctx context.Context, spec engine.AgentSpec, run *core.Context) engine.Outcome
}

// Options configures the orchestrator.
type Options struct {
	// CheckpointPath is where progress snapshots are written after each
	// completed agent or group. Empty disables checkpointing.
	CheckpointPath string
	// FinalContextPath is where the full context snapshot is written at run
	// end. Empty disables it.
	FinalContextPath string
	// IterationFactor bounds loop iterations at factor × agent count, so the
	// loop terminates even under bookkeeping bugs.
	IterationFactor int
	// PollInterval is the wait before rechecking when nothing is ready but
	// work is still running.
	PollInterval time.Duration
	// MaxParallel bounds concurrent executions inside one parallel group.
	MaxParallel int
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Summary is the user-visible result of a full orchestration run. Partial
// success (some agents failed) is a normal, reportable outcome.
type Summary struct {
	Success   bool              `json:"success"`
	Completed []string          `json:"completed"`
	Failed    []string          `json:"failed"`
	Failures  map[string]string `json:"failures,omitempty"`
	Duration  time.Duration     `json:"duration"`
	FileCount int               `json:"file_count"`
}

// Orchestrator owns the dependency graph, the agent specs and the three
// bookkeeping sets of one run.
type Orchestrator struct {
	graph    *graph.Graph
	executor Executor
	specs    map[string]engine.AgentSpec
	logger   logging.Logger
	opts     Options

	mu        sync.Mutex
	completed map[string]bool
	failed    map[string]bool
	running   map[string]bool
	failures  map[string]string
	outputs   map[string]AgentOutput
}

// New creates an orchestrator around an executor.
func New(executor Executor, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		IterationFactor: 3,
		PollInterval:    500 * time.Millisecond,
		MaxParallel:     3,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Orchestrator{
		graph:     graph.New(),
		executor:  executor,
		specs:     map[string]engine.AgentSpec{},
		logger:    opts.Logger,
		opts:      opts,
		completed: map[string]bool{},
		failed:    map[string]bool{},
		running:   map[string]bool{},
		failures:  map[string]string{},
		outputs:   map[string]AgentOutput{},
	}
}

// Register adds an agent spec with its prerequisite agent names.
func (o *Orchestrator) Register(spec engine.AgentSpec, prerequisites ...string) {
	o.specs[spec.Name] = spec
	o.graph.Add(spec.Name, prerequisites, spec.Priority)
}

// Group declares a parallel group; all members must be registered agents.
func (o *Orchestrator) Group(members ...string) {
	o.graph.AddGroup(members...)
}

// Graph exposes the dependency graph, mainly for inspection and tests.
func (o *Orchestrator) Graph() *graph.Graph { return o.graph }

// Run drives the whole orchestration to completion. The returned Summary is
// always populated, also when err is non-nil (deadlock, cancelled context,
// invalid graph).
func (o *Orchestrator) Run(ctx context.Context, run *core.Context) (*Summary, error) {
	start := time.Now()

	if _, err := o.graph.Validate(); err != nil {
		return o.summary(run, start), err
	}

	total := o.graph.Len()
	maxIterations := o.opts.IterationFactor * total
	if maxIterations < 1 {
		maxIterations = 1
	}

	var runErr error
loop:
	for iteration := 0; iteration < maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("orchestrator.interrupted", "error", err.Error())
			o.checkpoint(run)
			runErr = err
			break
		}

		if o.resolvedCount() == total {
			break
		}

		ready := o.graph.Ready(o.snapshotSet(o.completed), o.snapshotSet(o.failed), o.snapshotSet(o.running))
		if len(ready) == 0 {
			if o.runningCount() > 0 {
				// Work in flight; wait briefly and recheck.
				select {
				case <-ctx.Done():
					runErr = ctx.Err()
					break loop
				case <-time.After(o.opts.PollInterval):
				}
				continue
			}
			if err := o.graph.CheckDeadlock(o.snapshotSet(o.completed), o.snapshotSet(o.failed), o.snapshotSet(o.running)); err != nil {
				if len(o.failed) > 0 {
					// Remaining agents are blocked by upstream failures;
					// that is a reportable partial result, not a deadlock.
					o.logger.Warn("orchestrator.blocked_by_failure",
						"failed", keys(o.failed),
						"blocked", o.graph.Blocked(o.snapshotSet(o.completed), o.snapshotSet(o.failed)),
					)
					break
				}
				o.logger.Error("orchestrator.deadlock", "error", err.Error())
				runErr = err
				break
			}
			break
		}

		batch := o.graph.Batch(ready)
		run.SetPhase("executing: " + strings.Join(batch, ", "))
		o.logger.Info("orchestrator.batch", "iteration", iteration, "agents", batch)

		o.executeBatch(ctx, batch, run)
		o.checkpoint(run)
	}

	run.SetPhase("finished")
	summary := o.summary(run, start)
	o.checkpoint(run)
	o.writeFinalContext(run, summary)

	o.logger.Info("orchestrator.finished",
		"success", summary.Success,
		"completed", len(summary.Completed),
		"failed", len(summary.Failed),
		"files", summary.FileCount,
		"duration", summary.Duration.String(),
	)

	return summary, runErr
}

// executeBatch runs one agent or one parallel group to completion and folds
// the outcomes into the bookkeeping sets.
func (o *Orchestrator) executeBatch(ctx context.Context, batch []string, run *core.Context) {
	o.mu.Lock()
	for _, name := range batch {
		o.running[name] = true
	}
	o.mu.Unlock()

	outcomes := make([]engine.Outcome, len(batch))

	if len(batch) == 1 {
		outcomes[0] = o.executor.Execute(ctx, o.specs[batch[0]], run)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.opts.MaxParallel)
		for i, name := range batch {
			g.Go(func() error {
				outcomes[i] = o.executor.Execute(gctx, o.specs[name], run)
				return nil
			})
		}
		_ = g.Wait() // outcomes carry their own errors
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for i, name := range batch {
		delete(o.running, name)
		outcome := outcomes[i]
		o.outputs[name] = AgentOutput{
			Files:     outcome.FilesCreated,
			Rounds:    outcome.Rounds,
			ToolCalls: outcome.ToolCalls,
			Result:    truncate(outcome.Result, 400),
		}
		if outcome.Success {
			o.completed[name] = true
			continue
		}
		o.failed[name] = true
		if outcome.Err != nil {
			o.failures[name] = truncate(outcome.Err.Error(), 200)
		} else {
			o.failures[name] = "agent reported failure"
		}
		o.logger.Error("orchestrator.agent_failed", "agent", name, "error", o.failures[name])
	}
}

func (o *Orchestrator) summary(run *core.Context, start time.Time) *Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	failures := make(map[string]string, len(o.failures))
	for k, v := range o.failures {
		failures[k] = v
	}

	return &Summary{
		Success:   len(o.failed) == 0 && len(o.completed) == o.graph.Len(),
		Completed: keys(o.completed),
		Failed:    keys(o.failed),
		Failures:  failures,
		Duration:  time.Since(start),
		FileCount: len(run.AllFiles()),
	}
}

func (o *Orchestrator) resolvedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.completed) + len(o.failed)
}

func (o *Orchestrator) runningCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.running)
}

func (o *Orchestrator) snapshotSet(set map[string]bool) map[string]bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]bool, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
