package core

import (
	"context"

	"github.com/forgecrew/forgecrew/logging"
)

// ToolContext is the constrained surface handed to tool implementations for
// one function call: the invoking agent's identity, the function call id the
// provider expects echoed back, the shared run context, and the project root
// every relative file path resolves against.
type ToolContext struct {
	ctx         context.Context
	run         *Context
	agentName   string
	callID      string
	projectRoot string
	logger      logging.Logger
}

// NewToolContext binds a tool invocation to its agent, call id and run state.
func NewToolContext(
	ctx context.Context,
	run *Context,
	agentName, callID, projectRoot string,
	logger logging.Logger,
) *ToolContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolContext{
		ctx:         ctx,
		run:         run,
		agentName:   agentName,
		callID:      callID,
		projectRoot: projectRoot,
		logger:      logger,
	}
}

// Context returns the cancellation context for the invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// Run returns the shared run context.
func (tc *ToolContext) Run() *Context { return tc.run }

// AgentName returns the invoking agent's name.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// CallID returns the provider-assigned function call id.
func (tc *ToolContext) CallID() string { return tc.callID }

// ProjectRoot returns the directory file-writing tools resolve against.
func (tc *ToolContext) ProjectRoot() string { return tc.projectRoot }

// Logger returns the logger scoped to this invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }
