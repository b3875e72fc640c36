// Package graph provides the dependency graph backing plan execution.
package graph

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the plan.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph is a directed acyclic graph of plan tasks.
// Tasks are nodes; edges represent "blocked by" relationships.
// Topology is fixed after Build; only node statuses mutate, and every
// status mutation goes through the compare-and-set Transition so two
// workers can never claim the same node.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to the task itself.
	nodes map[string]*models.Task
	// edges maps task ID to IDs of tasks it depends on.
	edges map[string][]string
	// order keeps the build order for deterministic iteration.
	order []string
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*models.Task),
		edges: make(map[string][]string),
	}
}

// Build constructs the graph from the plan's tasks. It fails if a
// dependency references an unknown task or the graph has a cycle.
// Tasks with a zero-value status are normalized to pending, so plans
// built by hand schedule the same as decomposed ones.
func (g *DependencyGraph) Build(tasks []*models.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, task := range tasks {
		if _, dup := g.nodes[task.ID]; dup {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		if task.Status == "" {
			task.Status = models.TaskStatusPending
		}
		if !task.Status.Valid() {
			return fmt.Errorf("task %s has unknown status %q", task.ID, task.Status)
		}
		g.nodes[task.ID] = task
		g.edges[task.ID] = nil
		g.order = append(g.order, task.ID)
	}

	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("task %s depends on unknown task %s", task.ID, depID)
			}
			g.edges[task.ID] = append(g.edges[task.ID], depID)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

func (g *DependencyGraph) hasCycleLocked() bool {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int)

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, depID := range g.edges[id] {
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

	for id := range g.nodes {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// TopologicalSort returns task IDs with all dependencies before their
// dependents. Returns an error if the graph contains a cycle.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool)
	var result []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range g.edges[id] {
			visit(depID)
		}
		result = append(result, id)
	}

	// Walk in build order so the sort is deterministic.
	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Ready returns pending tasks whose dependencies are all done, in build
// order. These tasks can be dispatched in parallel.
func (g *DependencyGraph) Ready() []*models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []*models.Task
	for _, id := range g.order {
		task := g.nodes[id]
		if task.Status != models.TaskStatusPending {
			continue
		}

		allDone := true
		for _, depID := range g.edges[id] {
			if g.nodes[depID].Status != models.TaskStatusDone {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, task)
		}
	}
	return ready
}

// Transition atomically moves a task from one status to another.
// It returns false without mutating if the task is missing or not in
// the expected status; only one caller can win a given transition.
func (g *DependencyGraph) Transition(taskID string, from, to models.TaskStatus) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, ok := g.nodes[taskID]
	if !ok || task.Status != from {
		return false
	}
	task.Status = to
	if to.Terminal() {
		now := time.Now()
		task.CompletedAt = &now
	}
	return true
}

// MarkBlockedDependents transitions every transitive dependent of the
// failed task from pending to blocked. Blocked is terminal; these
// tasks never execute.
func (g *DependencyGraph) MarkBlockedDependents(failedID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var blocked []string
	queue := []string{failedID}
	seen := map[string]bool{failedID: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, id := range g.order {
			if seen[id] || !dependsOn(g.edges[id], current) {
				continue
			}
			seen[id] = true
			queue = append(queue, id)

			task := g.nodes[id]
			if task.Status == models.TaskStatusPending || task.Status == models.TaskStatusReady {
				task.Status = models.TaskStatusBlocked
				task.BlockedReason = "dependency_failed:" + failedID
				now := time.Now()
				task.CompletedAt = &now
				blocked = append(blocked, id)
			}
		}
	}
	return blocked
}

func dependsOn(deps []string, id string) bool {
	for _, dep := range deps {
		if dep == id {
			return true
		}
	}
	return false
}

// Task returns the task for a given ID, or nil if not found.
func (g *DependencyGraph) Task(taskID string) *models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[taskID]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs of tasks the given task depends on.
func (g *DependencyGraph) Dependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[taskID]
}

// Dependents returns the IDs of tasks that depend on the given task.
func (g *DependencyGraph) Dependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, id := range g.order {
		if dependsOn(g.edges[id], taskID) {
			dependents = append(dependents, id)
		}
	}
	return dependents
}

// Terminal returns true once every task has reached a terminal status.
func (g *DependencyGraph) Terminal() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, task := range g.nodes {
		if !task.Status.Terminal() {
			return false
		}
	}
	return true
}
