// Package repair inspects the arguments the model supplied for a tool call
// and fixes the malformation classes observed in practice (hallucinated
// name suffixes, missing required fields, alternately-named parameters,
// absent or placeholder file content) before the underlying tool function
// is invoked. A bounded per-(agent, path) counter breaks the loop of an
// agent repeating a broken file write forever.
package repair

import (
	"fmt"

	"github.com/forgecrew/forgecrew/logging"
)

// DefaultAliases is the reviewable table of hallucinated tool-name suffixes.
// A name carrying one of these suffixes is rewritten to the stripped name
// when (and only when) the stripped name is actually registered.
var DefaultAliases = []string{"_tool", "_function", "_fn"}

// DefaultSynthesisLimit is how many consecutive from-scratch content
// syntheses the same (agent, path) pair may trigger before the repair layer
// refuses with a LoopError.
const DefaultSynthesisLimit = 3

// LoopError is the typed hard failure raised when an agent keeps issuing
// content-less writes for the same path past the synthesis limit. The
// execution engine treats it as a per-agent failure; it is never retried at
// this layer.
type LoopError struct {
	Agent    string
	Path     string
	Attempts int
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("agent %s supplied no usable content for %s in %d consecutive attempts",
		e.Agent, e.Path, e.Attempts)
}

// Report describes what a repair pass changed, for logging and for the
// engine to flag synthesized files for later verification.
type Report struct {
	RenamedFrom         string   // original tool name when an alias was stripped
	Backfilled          []string // fields filled in or recovered from alternates
	SynthesizedContent  bool     // file content was generated from scratch
	ReplacedPlaceholder bool     // supplied content was placeholder filler
	TargetPath          string   // file path of a write repair, if any
}

// Changed reports whether the pass altered anything.
func (r Report) Changed() bool {
	return r.RenamedFrom != "" || len(r.Backfilled) > 0 || r.SynthesizedContent || r.ReplacedPlaceholder
}

// Options configures a Repairer.
type Options struct {
	// Aliases is the hallucinated-suffix table; defaults to DefaultAliases.
	Aliases []string
	// SynthesisLimit bounds consecutive content syntheses per (agent, path).
	SynthesisLimit int
	// CounterCapacity bounds how many (agent, path) pairs are tracked.
	CounterCapacity int
	// Logger records every rewrite for auditability.
	Logger logging.Logger
}

// Repairer applies the repair pipeline to one tool call at a time. It is
// safe for concurrent use; the only mutable state is the bounded counter
// set.
type Repairer struct {
	registered func(name string) bool
	aliases    []string
	limit      int
	counters   *CounterSet
	logger     logging.Logger
}

// New creates a Repairer. registered reports whether a tool name is known to
// the registry; alias stripping only rewrites onto registered names.
func New(registered func(name string) bool, optFns ...func(o *Options)) *Repairer {
	opts := Options{
		Aliases:        DefaultAliases,
		SynthesisLimit: DefaultSynthesisLimit,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Repairer{
		registered: registered,
		aliases:    opts.Aliases,
		limit:      opts.SynthesisLimit,
		counters:   NewCounterSet(opts.CounterCapacity),
		logger:     opts.Logger,
	}
}

// Counters exposes the loop-breaker state, mainly for tests.
func (r *Repairer) Counters() *CounterSet { return r.counters }

// Repair runs the full pipeline for one call: alias resolution, per-tool
// required-field backfill, and the repeated-failure loop breaker. It returns
// the resolved tool name and a repaired copy of the arguments; the caller's
// map is never mutated.
func (r *Repairer) Repair(agent, name string, args map[string]any) (string, map[string]any, Report, error) {
	report := Report{}

	resolved := r.resolveAlias(name)
	if resolved != name {
		report.RenamedFrom = name
		r.logger.Warn("repair.alias_rewrite", "agent", agent, "from", name, "to", resolved)
	}

	repaired := make(map[string]any, len(args))
	for k, v := range args {
		repaired[k] = v
	}

	var err error
	switch resolved {
	case "write_file":
		err = r.repairWriteFile(agent, repaired, &report)
	case "share_artifact":
		r.repairShareArtifact(repaired, &report)
	case "verify_deliverables":
		r.repairVerifyDeliverables(repaired, &report)
	case "record_decision":
		r.repairRecordDecision(repaired, &report)
	case "complete_task":
		r.repairCompleteTask(repaired, &report)
	}
	if err != nil {
		return resolved, nil, report, err
	}

	if report.Changed() {
		r.logger.Info("repair.applied",
			"agent", agent,
			"tool", resolved,
			"backfilled", report.Backfilled,
			"synthesized", report.SynthesizedContent,
			"replaced_placeholder", report.ReplacedPlaceholder,
		)
	}

	return resolved, repaired, report, nil
}

// resolveAlias strips a known hallucinated suffix when the stripped name is
// registered.
func (r *Repairer) resolveAlias(name string) string {
	if r.registered(name) {
		return name
	}
	for _, suffix := range r.aliases {
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			stripped := name[:len(name)-len(suffix)]
			if r.registered(stripped) {
				return stripped
			}
		}
	}
	return name
}

// repairWriteFile synthesizes stub content when the content field is
// missing, empty or placeholder filler, and enforces the per-(agent, path)
// loop breaker for consecutive syntheses.
func (r *Repairer) repairWriteFile(agent string, args map[string]any, report *Report) error {
	path, _ := args["file_path"].(string)
	if path == "" {
		// Alternate parameter names the model produces for the target path.
		for _, alt := range []string{"path", "filename", "file"} {
			if v, ok := args[alt].(string); ok && v != "" {
				path = v
				args["file_path"] = v
				delete(args, alt)
				report.Backfilled = append(report.Backfilled, "file_path")
				break
			}
		}
	}
	report.TargetPath = path

	content, _ := args["content"].(string)
	switch {
	case isEmptyContent(content):
		report.SynthesizedContent = true
	case isPlaceholder(content):
		report.ReplacedPlaceholder = true
	default:
		r.counters.Reset(agent, path)
		return nil
	}

	attempts := r.counters.Increment(agent, path)
	if attempts > r.limit {
		r.logger.Error("repair.loop_breaker",
			"agent", agent, "path", path, "attempts", attempts, "limit", r.limit)
		return &LoopError{Agent: agent, Path: path, Attempts: attempts}
	}

	args["content"] = StubContent(path)
	report.Backfilled = append(report.Backfilled, "content")
	r.logger.Warn("repair.content_synthesized",
		"agent", agent, "path", path, "attempt", attempts,
		"placeholder", report.ReplacedPlaceholder)

	return nil
}

// repairShareArtifact backfills a missing category and recovers the payload
// from alternately-named fields, stripping the alternates afterward so the
// tool never sees duplicate keys.
func (r *Repairer) repairShareArtifact(args map[string]any, report *Report) {
	if category, _ := args["category"].(string); category == "" {
		args["category"] = "general"
		report.Backfilled = append(report.Backfilled, "category")
	}
	if _, ok := args["content"]; !ok {
		for _, alt := range []string{"data", "artifact"} {
			if v, present := args[alt]; present {
				args["content"] = v
				report.Backfilled = append(report.Backfilled, "content")
				break
			}
		}
	}
	delete(args, "data")
	delete(args, "artifact")
}

// repairVerifyDeliverables backfills the path list from alternate names or a
// conventional default, stripping alternates afterward.
func (r *Repairer) repairVerifyDeliverables(args map[string]any, report *Report) {
	if _, ok := args["deliverables"]; !ok {
		for _, alt := range []string{"files", "items", "list"} {
			if v, present := args[alt]; present {
				args["deliverables"] = v
				report.Backfilled = append(report.Backfilled, "deliverables")
				break
			}
		}
	}
	if _, ok := args["deliverables"]; !ok {
		args["deliverables"] = []any{"README.md", "requirements.txt", "main.py"}
		report.Backfilled = append(report.Backfilled, "deliverables")
	}
	delete(args, "files")
	delete(args, "items")
	delete(args, "list")
}

// repairRecordDecision backfills decision and rationale. The reasoning field
// is a distinct, valid parameter and is never dropped.
func (r *Repairer) repairRecordDecision(args map[string]any, report *Report) {
	if decision, _ := args["decision"].(string); decision == "" {
		args["decision"] = "Decision recorded without description"
		report.Backfilled = append(report.Backfilled, "decision")
	}
	if rationale, _ := args["rationale"].(string); rationale == "" {
		if reason, ok := args["reason"].(string); ok && reason != "" {
			args["rationale"] = reason
			report.Backfilled = append(report.Backfilled, "rationale")
		}
	}
	delete(args, "reason")
}

// repairCompleteTask backfills a missing summary from description/task and
// always strips those alternates so unknown keys never reach the tool.
func (r *Repairer) repairCompleteTask(args map[string]any, report *Report) {
	if summary, _ := args["summary"].(string); summary == "" {
		for _, alt := range []string{"description", "task"} {
			if v, ok := args[alt].(string); ok && v != "" {
				args["summary"] = v
				report.Backfilled = append(report.Backfilled, "summary")
				break
			}
		}
	}
	delete(args, "description")
	delete(args, "task")
}
