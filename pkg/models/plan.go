package models

import "time"

// Plan is a dependency graph of tasks produced from a decomposed goal.
// Topology is immutable once execution begins; only node statuses mutate.
type Plan struct {
	// ID is the unique identifier for this plan.
	ID string `json:"id"`
	// Goal is the original goal the plan decomposes.
	Goal string `json:"goal"`
	// Tasks are the plan's nodes, in decomposition order.
	Tasks []*Task `json:"tasks"`
	// CreatedAt is when the plan was created.
	CreatedAt time.Time `json:"created_at"`
}

// Task returns the task with the given ID, or nil if not present.
func (p *Plan) Task(id string) *Task {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Sinks returns the tasks no other task depends on. These are the
// plan's final nodes; their results form the assembled answer, and
// their terminal statuses decide whether the run failed.
func (p *Plan) Sinks() []*Task {
	depended := make(map[string]bool)
	for _, t := range p.Tasks {
		for _, dep := range t.DependsOn {
			depended[dep] = true
		}
	}
	var sinks []*Task
	for _, t := range p.Tasks {
		if !depended[t.ID] {
			sinks = append(sinks, t)
		}
	}
	return sinks
}

// Terminal returns true once every task has reached a terminal status.
func (p *Plan) Terminal() bool {
	for _, t := range p.Tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}
