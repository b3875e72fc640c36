// Package decompose breaks a complex goal into a dependency graph of
// subtasks, each resolvable into a single dispatchable request.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/graph"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// ErrInvalidGoal indicates the goal was empty or whitespace.
var ErrInvalidGoal = errors.New("goal must not be empty")

// Strategy proposes a task breakdown for a goal. How many subtasks and
// how they relate is the strategy's business; the decomposer only
// enforces the acyclicity and id-resolution invariants on the output.
type Strategy interface {
	Propose(ctx context.Context, goal string) ([]*models.Task, error)
}

// Decomposer validates strategy output into an executable plan.
type Decomposer struct {
	strategy Strategy
}

// New creates a decomposer with the given strategy.
func New(strategy Strategy) *Decomposer {
	return &Decomposer{strategy: strategy}
}

// Decompose produces a validated plan for the goal. It fails with
// ErrInvalidGoal for an empty goal and rejects cyclic or unresolvable
// task graphs before any execution begins.
func (d *Decomposer) Decompose(ctx context.Context, goal string) (*models.Plan, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, ErrInvalidGoal
	}

	tasks, err := d.strategy.Propose(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("propose decomposition: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("strategy returned no tasks")
	}

	if err := Validate(tasks); err != nil {
		return nil, fmt.Errorf("validate decomposition: %w", err)
	}

	return &models.Plan{
		ID:        uuid.New().String(),
		Goal:      goal,
		Tasks:     tasks,
		CreatedAt: time.Now(),
	}, nil
}

// Validate checks the id-resolution and acyclicity invariants on a
// proposed task list. The check reuses the execution graph's builder
// so decomposition and execution agree on what a valid plan is.
func Validate(tasks []*models.Task) error {
	g := graph.New()
	return g.Build(tasks)
}
