package decompose

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// stepPrefix matches numbered or bulleted outline lines ("1.", "2)", "-", "*").
var stepPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s+`)

// OutlineStrategy splits an already-structured goal into a sequential
// chain of subtasks, one per outline line. It never calls a backend,
// which makes it useful for offline runs and as a deterministic
// fallback when the goal arrives pre-planned.
type OutlineStrategy struct{}

// NewOutlineStrategy creates an outline-splitting strategy.
func NewOutlineStrategy() *OutlineStrategy {
	return &OutlineStrategy{}
}

// Propose turns each outline line into a task depending on the one
// before it. A goal with no outline lines becomes a single task.
func (s *OutlineStrategy) Propose(_ context.Context, goal string) ([]*models.Task, error) {
	var steps []string
	for _, line := range strings.Split(goal, "\n") {
		if stepPrefix.MatchString(line) {
			steps = append(steps, strings.TrimSpace(stepPrefix.ReplaceAllString(line, "")))
		}
	}
	if len(steps) == 0 {
		steps = []string{strings.TrimSpace(goal)}
	}

	now := time.Now()
	tasks := make([]*models.Task, len(steps))
	for i, step := range steps {
		tasks[i] = &models.Task{
			ID:          uuid.New().String(),
			Title:       title(step),
			Description: step,
			Status:      models.TaskStatusPending,
			CreatedAt:   now,
		}
		if i > 0 {
			tasks[i].DependsOn = []string{tasks[i-1].ID}
		}
	}
	return tasks, nil
}

// title shortens a step into a task title.
func title(step string) string {
	const max = 60
	if len(step) <= max {
		return step
	}
	return step[:max-3] + "..."
}
