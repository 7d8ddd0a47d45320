// Package graph provides a dependency graph for task scheduling.
package graph

import (
	"sync"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// Edge is a directed edge from a prerequisite to its dependent.
// Edge{From: A, To: B} means B depends on A.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DependencyGraph represents the dependencies among a batch of task descriptors.
// It is built once and read-only afterwards.
type DependencyGraph struct {
	mu sync.RWMutex
	// order keeps node IDs in insertion order so iteration is deterministic.
	order []string
	// nodes maps task ID to its descriptor.
	nodes map[string]models.TaskDescriptor
	// deps maps task ID to the IDs it depends on, in declaration order.
	deps map[string][]string
	// edges holds one entry per declared dependency.
	edges []Edge
	// missing maps task ID to dependency IDs that are not nodes.
	missing map[string][]string
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[string]models.TaskDescriptor),
		deps:     make(map[string][]string),
		missing:  make(map[string][]string),
		debugLog: func(format string, args ...interface{}) {}, // no-op by default
	}
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Build constructs the graph from a slice of descriptors. Every declared
// dependency becomes an edge; dependencies on IDs outside the batch are kept
// as edges and also recorded as missing. Build never fails: anomalies are
// reported through Missing and HasCycle.
func (g *DependencyGraph) Build(tasks []models.TaskDescriptor) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.Build] building graph from %d tasks", len(tasks))

	// First pass: register all tasks as nodes.
	for _, task := range tasks {
		if _, exists := g.nodes[task.ID]; !exists {
			g.order = append(g.order, task.ID)
		}
		g.nodes[task.ID] = task
		g.deps[task.ID] = nil
	}

	// Second pass: build edges from Dependencies.
	for _, task := range tasks {
		for _, depID := range task.Dependencies {
			g.edges = append(g.edges, Edge{From: depID, To: task.ID})
			g.deps[task.ID] = append(g.deps[task.ID], depID)
			if _, exists := g.nodes[depID]; !exists {
				g.debugLog("[graph.Build] task %s depends on unknown task %s", task.ID, depID)
				g.missing[task.ID] = append(g.missing[task.ID], depID)
			}
		}
	}

	g.debugLog("[graph.Build] graph built with %d nodes, %d edges", len(g.nodes), len(g.edges))
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

// hasCycleLocked is the internal implementation that assumes the lock is held.
func (g *DependencyGraph) hasCycleLocked() bool {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1

		for _, depID := range g.deps[id] {
			if _, exists := g.nodes[depID]; !exists {
				continue
			}
			switch colors[depID] {
			case 1:
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}

		colors[id] = 2
		return false
	}

	for _, id := range g.order {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// Depths returns the dependency depth of every node: 0 for a task without
// dependencies, otherwise 1 + the deepest dependency. Depths are memoized.
// A node reached again while its own depth is being computed contributes 0
// to that branch, and cyclic is reported true.
func (g *DependencyGraph) Depths() (depths map[string]int, cyclic bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	depths = make(map[string]int, len(g.nodes))
	inProgress := make(map[string]bool)

	var depth func(id string) int
	depth = func(id string) int {
		if d, ok := depths[id]; ok {
			return d
		}
		if inProgress[id] {
			cyclic = true
			return 0
		}
		if len(g.deps[id]) == 0 {
			depths[id] = 0
			return 0
		}

		inProgress[id] = true
		maxDepth := 0
		for _, depID := range g.deps[id] {
			if _, exists := g.nodes[depID]; !exists {
				continue
			}
			if d := depth(depID); d > maxDepth {
				maxDepth = d
			}
		}
		delete(inProgress, id)

		depths[id] = maxDepth + 1
		return maxDepth + 1
	}

	for _, id := range g.order {
		depth(id)
	}
	return depths, cyclic
}

// MaxDepth returns the largest node depth, 0 for an empty graph.
func (g *DependencyGraph) MaxDepth() (int, bool) {
	depths, cyclic := g.Depths()
	maxDepth := 0
	for _, d := range depths {
		if d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth, cyclic
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns node IDs in insertion order.
func (g *DependencyGraph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// Edges returns a copy of all edges in declaration order.
func (g *DependencyGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.edges...)
}

// EdgeCount returns the number of declared dependencies.
func (g *DependencyGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// GetDependencies returns the IDs of tasks that the given task depends on.
func (g *DependencyGraph) GetDependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.deps[taskID]...)
}

// Missing returns, per task, dependency IDs that are not nodes of the graph.
func (g *DependencyGraph) Missing() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string][]string, len(g.missing))
	for id, deps := range g.missing {
		out[id] = append([]string(nil), deps...)
	}
	return out
}
