// Package forgecrew provides a high-level façade over the execution engine,
// dependency orchestrator and tool subsystem, enabling construction of a
// multi-agent project-generation run in a few calls. Most applications:
//  1. Create a Crew via New() with a configured model
//  2. Register agents (or install the default crew) with their prerequisites
//  3. Call Run() with the project requirements
//
// The façade wires the builtin tools, the repair layer and checkpointing;
// all defaults are safe for local use.
package forgecrew

import (
	"context"
	"time"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/engine"
	"github.com/forgecrew/forgecrew/locks"
	"github.com/forgecrew/forgecrew/logging"
	"github.com/forgecrew/forgecrew/model"
	"github.com/forgecrew/forgecrew/orchestrator"
	"github.com/forgecrew/forgecrew/tool"
)

// Options configures a Crew instance.
type Options struct {
	// ProjectRoot is the directory generated files land in.
	ProjectRoot string
	// CheckpointPath / FinalContextPath configure progress persistence.
	CheckpointPath   string
	FinalContextPath string
	// CallsPerMinute is the proactive model-call ceiling.
	CallsPerMinute int
	// MaxRounds bounds model round-trips per agent invocation.
	MaxRounds int
	// MaxParallel bounds concurrency inside a parallel group.
	MaxParallel int
	// CommandTimeout bounds each run_command invocation.
	CommandTimeout time.Duration
	// StrictDependencies switches artifact dependency checks to exact
	// key matching.
	StrictDependencies bool
	// Logger defaults to NoOp.
	Logger logging.Logger
	// ExtraTools are registered after the builtins (same-name wins).
	ExtraTools []tool.Tool
}

// Crew aggregates the engine, orchestrator and tool registry for one or
// more orchestration runs.
type Crew struct {
	opts     Options
	registry *tool.Registry
	engine   *engine.Engine
	orch     *orchestrator.Orchestrator
}

// New creates a Crew around a model with optional overrides.
func New(m model.Model, optFns ...func(o *Options)) *Crew {
	opts := Options{
		ProjectRoot:      "project_output",
		CheckpointPath:   "checkpoint.json",
		FinalContextPath: "final_context.json",
		CallsPerMinute:   30,
		MaxRounds:        10,
		MaxParallel:      3,
		CommandTimeout:   60 * time.Second,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := tool.NewRegistry()
	lockManager := locks.NewManager()
	registry.Register(tool.NewWriteFileTool(func(o *tool.WriteFileOptions) {
		o.Locks = lockManager
	}))
	registry.Register(tool.NewRunCommandTool(opts.CommandTimeout))
	registry.Register(tool.NewShareArtifactTool())
	registry.Register(tool.NewRequestArtifactTool())
	registry.Register(tool.NewDependencyCheckTool())
	registry.Register(tool.NewVerifyDeliverablesTool())
	registry.Register(tool.NewRecordDecisionTool())
	registry.Register(tool.NewCompleteTaskTool())
	for _, t := range opts.ExtraTools {
		registry.Register(t)
	}

	eng := engine.New(m, registry, opts.ProjectRoot, func(o *engine.Options) {
		o.MaxRounds = opts.MaxRounds
		o.CallsPerMinute = opts.CallsPerMinute
		o.Logger = opts.Logger
	})

	orch := orchestrator.New(eng, func(o *orchestrator.Options) {
		o.CheckpointPath = opts.CheckpointPath
		o.FinalContextPath = opts.FinalContextPath
		o.MaxParallel = opts.MaxParallel
		o.Logger = opts.Logger
	})

	return &Crew{opts: opts, registry: registry, engine: eng, orch: orch}
}

// Register adds an agent spec with its prerequisite agent names.
func (c *Crew) Register(spec engine.AgentSpec, prerequisites ...string) {
	c.orch.Register(spec, prerequisites...)
}

// Group declares a parallel group of registered agents.
func (c *Crew) Group(members ...string) {
	c.orch.Group(members...)
}

// Registry exposes the tool registry for additional registrations.
func (c *Crew) Registry() *tool.Registry { return c.registry }

// Run executes the whole crew against the given project requirements and
// returns the orchestration summary plus the final run context.
func (c *Crew) Run(ctx context.Context, requirements map[string]any) (*orchestrator.Summary, *core.Context, error) {
	run := core.NewContext(requirements, func(o *core.ContextOptions) {
		o.StrictDependencies = c.opts.StrictDependencies
	})
	run.SetArtifact("output_directory", c.opts.ProjectRoot, "orchestrator")
	run.SetPhase("starting")

	summary, err := c.orch.Run(ctx, run)
	return summary, run, err
}
