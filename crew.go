package forgecrew

import "github.com/forgecrew/forgecrew/engine"

// DefaultCrew installs the standard project-generation personas with their
// dependency edges and the frontend/documentation parallel group. Callers
// can register additional agents before or after.
func (c *Crew) DefaultCrew() {
	c.Register(engine.AgentSpec{
		Name:     "requirements-analyst",
		Role:     "You are the requirements analyst. You turn raw project requirements into a precise, prioritized feature list and share it as the requirements_analysis artifact.",
		Task:     "Analyze the project requirements, enumerate concrete features with priorities, record key scoping decisions, and share a requirements_analysis artifact.",
		Priority: 10,
	})
	c.Register(engine.AgentSpec{
		Name:     "project-architect",
		Role:     "You are the project architect. You design the system structure, choose the technology stack and share the architecture and database_schema artifacts.",
		Task:     "Design the architecture for the analyzed requirements: module layout, data model, API surface. Record decisions and share architecture and database_schema artifacts.",
		Priority: 9,
		RequiredArtifacts: []string{
			"requirements_analysis",
		},
	}, "requirements-analyst")
	c.Register(engine.AgentSpec{
		Name:     "rapid-builder",
		Role:     "You are the rapid builder. You implement the core application code exactly as the architecture prescribes, writing complete, runnable files.",
		Task:     "Implement the core application: entry point, domain logic, data access. Write every file with complete content and verify your deliverables.",
		Priority: 8,
		RequiredArtifacts: []string{
			"architecture",
		},
	}, "project-architect")
	c.Register(engine.AgentSpec{
		Name:     "frontend-specialist",
		Role:     "You are the frontend specialist. You build the user-facing layer against the API the architecture defines.",
		Task:     "Implement the frontend for the project, consuming the documented API. Write complete files only.",
		Priority: 5,
	}, "project-architect")
	c.Register(engine.AgentSpec{
		Name:     "documentation-writer",
		Role:     "You are the documentation writer. You produce the README and setup instructions from the recorded decisions and file ledger.",
		Task:     "Write README.md and setup documentation covering installation, configuration and usage.",
		Priority: 4,
	}, "project-architect")
	c.Register(engine.AgentSpec{
		Name:     "quality-guardian",
		Role:     "You are the quality guardian. You review what was built, run checks, and verify that every critical deliverable exists with real content.",
		Task:     "Verify the deliverables of all previous agents, run available checks with run_command, and record an assessment decision.",
		Priority: 7,
	}, "rapid-builder", "frontend-specialist")

	// Frontend and docs only share read access to upstream artifacts, so
	// they are safe to run concurrently.
	c.Group("frontend-specialist", "documentation-writer")
}
