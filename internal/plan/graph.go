package plan

import (
	"fmt"
	"slices"
	"strings"
)

// Graph is the validated dependency graph of a plan. Steps are addressed
// by their declared index, which also breaks ordering ties.
type Graph struct {
	steps      []Step
	index      map[string]int
	deps       [][]int
	dependents [][]int
	order      []int
}

// NewGraph checks the plan structure and computes a topological order.
func NewGraph(p Plan) (*Graph, error) {
	g := &Graph{
		steps:      p.Steps,
		index:      make(map[string]int, len(p.Steps)),
		deps:       make([][]int, len(p.Steps)),
		dependents: make([][]int, len(p.Steps)),
	}
	for i, step := range p.Steps {
		if strings.TrimSpace(step.ID) == "" {
			return nil, &InvalidPlanError{Reason: fmt.Sprintf("steps[%d].id is required", i)}
		}
		if _, exists := g.index[step.ID]; exists {
			return nil, &InvalidPlanError{Reason: fmt.Sprintf("duplicate step id: %s", step.ID)}
		}
		g.index[step.ID] = i
	}
	for i, step := range p.Steps {
		for _, dep := range step.DependsOn {
			j, ok := g.index[dep]
			if !ok {
				return nil, &InvalidPlanError{Reason: fmt.Sprintf("step %s depends on unknown step %s", step.ID, dep)}
			}
			if slices.Contains(g.deps[i], j) {
				continue
			}
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}
	for i := range g.dependents {
		slices.Sort(g.dependents[i])
	}

	order, err := g.sort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// sort is Kahn's algorithm with the ready set kept ordered by declared index.
func (g *Graph) sort() ([]int, error) {
	indegree := g.Indegrees()
	var ready []int
	for i, n := range indegree {
		if n == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(g.steps))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dependent := range g.dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = InsertSorted(ready, dependent)
			}
		}
	}

	if len(order) != len(g.steps) {
		var stuck []string
		for i, n := range indegree {
			if n > 0 {
				stuck = append(stuck, g.steps[i].ID)
			}
		}
		return nil, &CyclicDependencyError{Steps: stuck}
	}
	return order, nil
}

// Len returns the number of steps.
func (g *Graph) Len() int { return len(g.steps) }

// Step returns the step at declared index i.
func (g *Graph) Step(i int) Step { return g.steps[i] }

// Deps returns the declared indexes the step at i depends on, deduplicated.
func (g *Graph) Deps(i int) []int { return g.deps[i] }

// Dependents returns the declared indexes depending directly on step i.
func (g *Graph) Dependents(i int) []int { return g.dependents[i] }

// Indegrees returns a fresh slice of unmet dependency counts.
func (g *Graph) Indegrees() []int {
	out := make([]int, len(g.steps))
	for i, deps := range g.deps {
		out[i] = len(deps)
	}
	return out
}

// Order returns the steps in deterministic topological order.
func (g *Graph) Order() []Step {
	out := make([]Step, len(g.order))
	for i, idx := range g.order {
		out[i] = g.steps[idx]
	}
	return out
}

// InsertSorted inserts v into an ascending slice keeping it sorted.
func InsertSorted(items []int, v int) []int {
	pos, _ := slices.BinarySearch(items, v)
	return slices.Insert(items, pos, v)
}
