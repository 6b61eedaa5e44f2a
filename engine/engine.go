// Package engine drives one named agent through an iterative
// prompt → model response → tool calls → tool results loop against the
// hosted model API, with proactive rate limiting, bounded retry/backoff,
// authentication short-circuiting and an iteration budget.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/forgecrew/forgecrew/core"
	"github.com/forgecrew/forgecrew/logging"
	"github.com/forgecrew/forgecrew/model"
	"github.com/forgecrew/forgecrew/repair"
	"github.com/forgecrew/forgecrew/tool"
)

// AgentSpec names an agent persona and the task it is asked to perform.
type AgentSpec struct {
	// Name is the unique agent identifier (e.g. "rapid-builder").
	Name string
	// Role is the persona description placed in the system prompt.
	Role string
	// Task is the concrete instruction for this invocation.
	Task string
	// Priority breaks ties when several agents are ready; higher runs first.
	Priority int
	// RequiredArtifacts are the artifact keys this agent needs before
	// running, declared into the run context at execution start.
	RequiredArtifacts []string
}

// Outcome is the single success/failure result of one agent invocation.
type Outcome struct {
	Agent           string
	Success         bool
	Result          string
	Rounds          int
	ToolCalls       int
	FilesCreated    int
	BudgetExhausted bool
	Err             error
	Duration        time.Duration
}

// Options configures the execution engine.
type Options struct {
	// MaxRounds bounds request/response rounds per agent invocation.
	// Exceeding it is a soft timeout, not a failure.
	MaxRounds int
	// MaxTransientRetries bounds linear-backoff retries for transient errors.
	MaxTransientRetries int
	// TransientDelay is the linear backoff unit for transient errors.
	TransientDelay time.Duration
	// MaxRateRetries bounds exponential-backoff retries after 429s.
	MaxRateRetries int
	// BackoffInitial seeds the exponential backoff for rate limits.
	BackoffInitial time.Duration
	// BackoffMax caps a single rate-limit wait.
	BackoffMax time.Duration
	// CallsPerMinute is the proactive rolling-window ceiling. <= 0 disables.
	CallsPerMinute int
	// MaxTokens / Temperature are forwarded on every model request.
	MaxTokens   int64
	Temperature float64
	// SynthesisLimit bounds consecutive content syntheses per (agent, path).
	SynthesisLimit int
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Engine executes agents against a model using a shared tool registry. One
// Engine owns its repair state, so separate engines are fully isolated.
type Engine struct {
	model    model.Model
	registry *tool.Registry
	repairer *repair.Repairer
	window   *core.RateWindow
	logger   logging.Logger
	opts     Options

	projectRoot string

	// sleep is a test seam for backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an execution engine bound to a model, tool registry and
// project root directory.
func New(m model.Model, registry *tool.Registry, projectRoot string, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MaxRounds:           10,
		MaxTransientRetries: 3,
		TransientDelay:      2 * time.Second,
		MaxRateRetries:      5,
		BackoffInitial:      2 * time.Second,
		BackoffMax:          60 * time.Second,
		CallsPerMinute:      30,
		MaxTokens:           8192,
		Temperature:         0.7,
		SynthesisLimit:      repair.DefaultSynthesisLimit,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	e := &Engine{
		model:       m,
		registry:    registry,
		window:      core.NewRateWindow(opts.CallsPerMinute),
		logger:      opts.Logger,
		opts:        opts,
		projectRoot: projectRoot,
		sleep:       sleepCtx,
	}
	e.repairer = repair.New(
		func(name string) bool { _, ok := registry.Get(name); return ok },
		func(o *repair.Options) {
			o.SynthesisLimit = opts.SynthesisLimit
			o.Logger = opts.Logger
		},
	)

	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Execute drives one agent to a terminal outcome, mutating the shared run
// context through the tools the model invokes.
func (e *Engine) Execute(ctx context.Context, spec AgentSpec, run *core.Context) Outcome {
	start := time.Now()
	invocationID := uuid.NewString()
	logger := logging.With(e.logger, "agent", spec.Name, "invocation_id", invocationID)

	if len(spec.RequiredArtifacts) > 0 {
		run.SetAgentDependency(spec.Name, spec.RequiredArtifacts)
		if ok, missing := run.CheckDependencies(spec.Name); !ok {
			logger.Warn("engine.dependencies_missing", "missing", missing)
		}
	}

	req := model.Request{
		System:      e.buildSystemPrompt(spec, run),
		Messages:    []model.Message{{Role: "user", Text: e.buildTaskPrompt(spec)}},
		Tools:       e.registry.WireSchemas(),
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	}

	var textParts []string
	toolCalls := 0

	for round := 1; round <= e.opts.MaxRounds; round++ {
		resp, err := e.callModel(ctx, req)
		if err != nil {
			reason := err.Error()
			if model.IsAuth(err) {
				logger.Error("engine.auth_failure", "error", reason)
			} else {
				logger.Error("engine.model_failure", "round", round, "error", reason)
			}
			run.AddIncompleteTask(spec.Name, spec.Task, truncate(reason, 200))
			return Outcome{
				Agent:    spec.Name,
				Rounds:   round,
				Err:      err,
				Duration: time.Since(start),
			}
		}

		if resp.Text != "" {
			textParts = append(textParts, resp.Text)
		}

		if len(resp.ToolCalls) == 0 {
			result := strings.Join(textParts, "\n")
			run.AddCompletedTask(core.DetailedTask(spec.Name, "completed", len(run.AgentFiles(spec.Name))))
			logger.Info("engine.agent_complete", "rounds", round, "tool_calls", toolCalls)
			return Outcome{
				Agent:        spec.Name,
				Success:      true,
				Result:       result,
				Rounds:       round,
				ToolCalls:    toolCalls,
				FilesCreated: len(run.AgentFiles(spec.Name)),
				Duration:     time.Since(start),
			}
		}

		req.Messages = append(req.Messages, model.Message{
			Role:      "assistant",
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		results, err := e.runToolCalls(ctx, spec, run, resp.ToolCalls, logger)
		toolCalls += len(resp.ToolCalls)
		if err != nil {
			run.AddIncompleteTask(spec.Name, spec.Task, truncate(err.Error(), 200))
			return Outcome{
				Agent:     spec.Name,
				Rounds:    round,
				ToolCalls: toolCalls,
				Err:       err,
				Duration:  time.Since(start),
			}
		}
		req.Messages = append(req.Messages, model.Message{Role: "tool", ToolResults: results})
	}

	// Iteration budget exhausted: soft timeout, keep partial progress.
	result := strings.Join(textParts, "\n")
	run.AddCompletedTask(core.DetailedTask(spec.Name, "partial", len(run.AgentFiles(spec.Name))))
	logger.Warn("engine.iteration_budget_exhausted", "rounds", e.opts.MaxRounds)
	return Outcome{
		Agent:           spec.Name,
		Success:         true,
		Result:          result,
		Rounds:          e.opts.MaxRounds,
		ToolCalls:       toolCalls,
		FilesCreated:    len(run.AgentFiles(spec.Name)),
		BudgetExhausted: true,
		Duration:        time.Since(start),
	}
}

// runToolCalls processes the calls strictly in the order the model emitted
// them, each through the repair layer. Tool failures are fed back to the
// model as error results; only a repair loop-breaker is a hard failure.
func (e *Engine) runToolCalls(
	ctx context.Context,
	spec AgentSpec,
	run *core.Context,
	calls []model.ToolCall,
	logger logging.Logger,
) ([]model.ToolResult, error) {
	results := make([]model.ToolResult, 0, len(calls))

	for _, call := range calls {
		callID := call.ID
		if callID == "" {
			callID = uuid.NewString()
		}

		name, args, report, err := e.repairer.Repair(spec.Name, call.Name, call.Arguments)
		var loopErr *repair.LoopError
		if errors.As(err, &loopErr) {
			return nil, loopErr
		}
		if err != nil {
			return nil, err
		}

		impl, ok := e.registry.Get(name)
		if !ok {
			logger.Warn("engine.unknown_tool", "tool", call.Name)
			results = append(results, model.ToolResult{
				CallID:  callID,
				Content: fmt.Sprintf("Unknown tool %q. Available tools: %v", call.Name, e.registry.Names()),
				IsError: true,
			})
			continue
		}

		toolCtx := core.NewToolContext(ctx, run, spec.Name, callID, e.projectRoot, logger)
		result, callErr := impl.Call(toolCtx, args)

		if callErr == nil && name == "write_file" &&
			(report.SynthesizedContent || report.ReplacedPlaceholder) && report.TargetPath != "" {
			run.AddVerificationRequired(report.TargetPath)
		}

		results = append(results, model.ToolResult{
			CallID:  callID,
			Content: formatToolResult(result, callErr),
			IsError: callErr != nil,
		})
	}

	return results, nil
}

// callModel sends one request with the full retry envelope: proactive rate
// window, immediate auth short-circuit, capped exponential backoff for 429s
// and bounded linear backoff for transients.
func (e *Engine) callModel(ctx context.Context, req model.Request) (*model.Response, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = e.opts.BackoffInitial
	expo.MaxInterval = e.opts.BackoffMax
	expo.MaxElapsedTime = 0 // retry count is the bound, not elapsed time
	expo.Reset()

	rateRetries := 0
	transientRetries := 0

	for {
		if err := e.window.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := e.model.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch {
		case model.IsAuth(err):
			// Retrying cannot succeed with rejected credentials.
			return nil, err

		case model.IsRateLimit(err):
			rateRetries++
			if rateRetries > e.opts.MaxRateRetries {
				return nil, fmt.Errorf("rate limit retries exhausted after %d attempts: %w", rateRetries, err)
			}
			wait := expo.NextBackOff()
			var rle *model.RateLimitError
			if errors.As(err, &rle) && rle.RetryAfter > wait {
				wait = rle.RetryAfter
			}
			if wait > e.opts.BackoffMax {
				wait = e.opts.BackoffMax
			}
			e.logger.Warn("engine.rate_limited", "attempt", rateRetries, "wait", wait.String())
			if serr := e.sleep(ctx, wait); serr != nil {
				return nil, serr
			}

		default:
			transientRetries++
			if transientRetries > e.opts.MaxTransientRetries {
				return nil, fmt.Errorf("transient retries exhausted after %d attempts: %w", transientRetries, err)
			}
			wait := time.Duration(transientRetries) * e.opts.TransientDelay
			e.logger.Warn("engine.transient_error", "attempt", transientRetries, "wait", wait.String(), "error", err.Error())
			if serr := e.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
		}
	}
}

// buildSystemPrompt assembles the persona plus the serialized slice of run
// context the agent needs: phase, available artifacts, prior work.
func (e *Engine) buildSystemPrompt(spec AgentSpec, run *core.Context) string {
	var b strings.Builder

	role := spec.Role
	if role == "" {
		role = fmt.Sprintf("You are %s, a software engineering agent.", spec.Name)
	}
	b.WriteString(role)
	b.WriteString("\n\nYou collaborate with other agents on one software project. ")
	b.WriteString("Use the provided tools to write files, share artifacts and record decisions. ")
	b.WriteString("Always supply complete file content; never write placeholders.\n")

	if phase := run.Phase(); phase != "" {
		fmt.Fprintf(&b, "\nCurrent phase: %s\n", phase)
	}
	if keys := run.ArtifactKeys(); len(keys) > 0 {
		fmt.Fprintf(&b, "Available artifacts: %s\n", strings.Join(keys, ", "))
	}
	if tasks := run.CompletedTasks(); len(tasks) > 0 {
		b.WriteString("Completed so far:\n")
		for _, t := range tail(tasks, 5) {
			fmt.Fprintf(&b, "  - %s\n", t.Name)
		}
	}
	if reqs := run.Requirements(); len(reqs) > 0 {
		if encoded, err := json.MarshalIndent(reqs, "", "  "); err == nil {
			fmt.Fprintf(&b, "\nProject requirements:\n%s\n", encoded)
		}
	}

	return b.String()
}

func (e *Engine) buildTaskPrompt(spec AgentSpec) string {
	if spec.Task != "" {
		return spec.Task
	}
	return fmt.Sprintf("Perform your role as %s for this project, then summarize what you did.", spec.Name)
}

func formatToolResult(result any, err error) string {
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	switch v := result.(type) {
	case nil:
		return "OK"
	case string:
		return v
	default:
		encoded, merr := json.Marshal(v)
		if merr != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func tail(tasks []core.TaskResult, n int) []core.TaskResult {
	if len(tasks) <= n {
		return tasks
	}
	return tasks[len(tasks)-n:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
