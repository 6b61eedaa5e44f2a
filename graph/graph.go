// Package graph implements the static agent dependency graph and the
// scheduling queries the orchestrator relies on: which agents are ready
// given the completed/failed/running sets, how ready agents batch into
// predeclared parallel groups, and whether the run is deadlocked.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gammazero/toposort"
)

// Graph is a static mapping of agent name to prerequisite agent names, plus
// optional parallel groups. Construction happens once at startup; the
// scheduling queries are read-only and safe for concurrent use afterwards.
type Graph struct {
	order    []string // declaration order, the deterministic tie-break
	deps     map[string][]string
	priority map[string]int
	groups   [][]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		deps:     map[string][]string{},
		priority: map[string]int{},
	}
}

// Add registers an agent with its prerequisites. Re-adding a name overwrites
// its prerequisites but keeps its original declaration position.
func (g *Graph) Add(name string, prerequisites []string, priority int) {
	if _, exists := g.deps[name]; !exists {
		g.order = append(g.order, name)
	}
	g.deps[name] = append([]string(nil), prerequisites...)
	g.priority[name] = priority
}

// AddGroup declares a set of agents that may execute concurrently once all
// members are simultaneously ready.
func (g *Graph) AddGroup(members ...string) {
	g.groups = append(g.groups, append([]string(nil), members...))
}

// Agents returns all agent names in declaration order.
func (g *Graph) Agents() []string {
	return append([]string(nil), g.order...)
}

// Prerequisites returns the declared prerequisites for an agent.
func (g *Graph) Prerequisites(name string) []string {
	return append([]string(nil), g.deps[name]...)
}

// Len returns the number of registered agents.
func (g *Graph) Len() int { return len(g.order) }

// Validate checks that every prerequisite names a registered agent and that
// the graph is acyclic, returning a topological order.
func (g *Graph) Validate() ([]string, error) {
	for name, prereqs := range g.deps {
		for _, dep := range prereqs {
			if _, exists := g.deps[dep]; !exists {
				return nil, fmt.Errorf("agent %q depends on unregistered agent %q", name, dep)
			}
		}
	}

	var edges []toposort.Edge
	for _, name := range g.order {
		prereqs := g.deps[name]
		if len(prereqs) == 0 {
			edges = append(edges, toposort.Edge{nil, name})
			continue
		}
		for _, dep := range prereqs {
			edges = append(edges, toposort.Edge{dep, name})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("dependency graph contains a cycle: %w", err)
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	return order, nil
}

// Ready returns the agents eligible to run: not yet completed, failed or
// running, with every prerequisite completed and none failed. An agent with
// a failed prerequisite is permanently blocked; it never becomes ready.
// Results are ordered by priority (descending) then declaration order.
func (g *Graph) Ready(completed, failed, running map[string]bool) []string {
	var ready []string

	for _, name := range g.order {
		if completed[name] || failed[name] || running[name] {
			continue
		}
		eligible := true
		for _, dep := range g.deps[name] {
			if !completed[dep] {
				eligible = false
				break
			}
		}
		if eligible {
			ready = append(ready, name)
		}
	}

	sort.SliceStable(ready, func(i, j int) bool {
		return g.priority[ready[i]] > g.priority[ready[j]]
	})

	return ready
}

// Batch selects what to execute from the ready set: a whole predeclared
// parallel group when its entire membership is simultaneously ready,
// otherwise a singleton containing the first ready agent.
func (g *Graph) Batch(ready []string) []string {
	if len(ready) == 0 {
		return nil
	}

	readySet := make(map[string]bool, len(ready))
	for _, name := range ready {
		readySet[name] = true
	}

	for _, group := range g.groups {
		all := len(group) > 0
		for _, member := range group {
			if !readySet[member] {
				all = false
				break
			}
		}
		if all {
			return append([]string(nil), group...)
		}
	}

	return []string{ready[0]}
}

// Blocked returns agents that can never run because a (possibly transitive)
// prerequisite failed.
func (g *Graph) Blocked(completed, failed map[string]bool) []string {
	var blocked []string
	for _, name := range g.order {
		if completed[name] || failed[name] {
			continue
		}
		if g.hasFailedAncestor(name, failed, map[string]bool{}) {
			blocked = append(blocked, name)
		}
	}
	return blocked
}

func (g *Graph) hasFailedAncestor(name string, failed, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true
	for _, dep := range g.deps[name] {
		if failed[dep] || g.hasFailedAncestor(dep, failed, seen) {
			return true
		}
	}
	return false
}

// DeadlockError reports a stuck graph: nothing ready, nothing running, yet
// agents remain that are neither completed nor failed.
type DeadlockError struct {
	Pending []string
	Blocked []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("dependency graph is stuck: pending [%s], blocked by failure [%s]",
		strings.Join(e.Pending, ", "), strings.Join(e.Blocked, ", "))
}

// CheckDeadlock returns a DeadlockError when the run can make no further
// progress, or nil otherwise.
func (g *Graph) CheckDeadlock(completed, failed, running map[string]bool) error {
	if len(g.Ready(completed, failed, running)) > 0 || len(running) > 0 {
		return nil
	}

	var pending []string
	for _, name := range g.order {
		if !completed[name] && !failed[name] {
			pending = append(pending, name)
		}
	}
	if len(pending) == 0 {
		return nil // everything resolved
	}

	return &DeadlockError{Pending: pending, Blocked: g.Blocked(completed, failed)}
}
