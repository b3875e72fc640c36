// Package reflection runs a risk pass before a plan executes and a
// lessons pass after it finishes, persisting findings to the experience
// store. Both passes are advisory. Store failures are logged and never
// surface to the caller.
package reflection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/experience"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// relatedLessonLimit bounds how many prior records seed the risk pass.
const relatedLessonLimit = 5

// Logger receives diagnostic messages from the engine.
type Logger interface {
	Log(format string, args ...interface{})
}

// NodeOutcome summarizes one task's terminal state for the lessons pass.
type NodeOutcome struct {
	TaskID        string
	Title         string
	Status        models.TaskStatus
	Retries       int
	WinnerID      string
	FailureReason string
}

// RunSummary is the completed run handed to PostRun.
type RunSummary struct {
	PlanID  string
	Goal    string
	Failed  bool
	Nodes   []NodeOutcome
	Elapsed time.Duration
}

// Engine produces reflection records around plan runs.
type Engine struct {
	store  experience.Store
	logger Logger
}

// New creates an Engine. The store may be nil, in which case related
// lessons are skipped and records are not persisted.
func New(store experience.Store, logger Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// PreRun inspects a plan before execution and returns a record whose
// risk list combines structural heuristics with related lessons from
// past runs. It never fails; an unreachable store only trims the list.
func (e *Engine) PreRun(ctx context.Context, plan *models.Plan) *models.ReflectionRecord {
	rec := &models.ReflectionRecord{
		ID:        uuid.New().String(),
		PlanID:    plan.ID,
		Goal:      plan.Goal,
		CreatedAt: time.Now(),
	}

	rec.Risks = structuralRisks(plan)

	if e.store != nil {
		related, err := e.store.QueryRelated(ctx, plan.Goal, relatedLessonLimit)
		if err != nil {
			e.logf("reflection: query related lessons: %v", err)
		} else {
			for _, prior := range related {
				for _, lesson := range prior.Lessons {
					rec.Risks = append(rec.Risks, "past lesson: "+lesson)
				}
			}
		}
	}

	return rec
}

// PostRun classifies the finished run, derives lessons, and persists
// the completed record. The returned record is always usable even when
// persistence fails.
func (e *Engine) PostRun(ctx context.Context, rec *models.ReflectionRecord, summary *RunSummary) *models.ReflectionRecord {
	if rec == nil {
		rec = &models.ReflectionRecord{
			ID:        uuid.New().String(),
			PlanID:    summary.PlanID,
			Goal:      summary.Goal,
			CreatedAt: time.Now(),
		}
	}

	rec.Lessons = deriveLessons(summary)
	rec.Classification = classify(summary)

	if e.store != nil {
		if err := e.store.Put(ctx, rec); err != nil {
			e.logf("reflection: persist record %s: %v", rec.ID, err)
		}
	}

	return rec
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Log(format, args...)
	}
}

// classify maps a run summary to an outcome class. A failed run is
// always Failed. A successful run that needed retries or left blocked
// branches behind succeeded with caveats.
func classify(summary *RunSummary) models.OutcomeClass {
	if summary.Failed {
		return models.OutcomeFailed
	}
	for _, node := range summary.Nodes {
		if node.Status != models.TaskStatusDone || node.Retries > 0 {
			return models.OutcomeSucceededWithCaveats
		}
	}
	return models.OutcomeSucceeded
}

func deriveLessons(summary *RunSummary) []string {
	var lessons []string
	timeouts := 0

	for _, node := range summary.Nodes {
		switch node.Status {
		case models.TaskStatusFailed:
			lessons = append(lessons, fmt.Sprintf(
				"task %q failed after %d retries: %s", node.Title, node.Retries, node.FailureReason))
		case models.TaskStatusBlocked:
			lessons = append(lessons, fmt.Sprintf(
				"task %q never ran because a dependency failed", node.Title))
		case models.TaskStatusDone:
			if node.Retries > 0 {
				lessons = append(lessons, fmt.Sprintf(
					"task %q succeeded only after %d retries", node.Title, node.Retries))
			}
		}
		if containsTimeout(node.FailureReason) {
			timeouts++
		}
	}

	if timeouts > 1 {
		lessons = append(lessons, fmt.Sprintf(
			"%d tasks hit timeouts; consider longer candidate timeouts or a later overall deadline", timeouts))
	}
	if len(lessons) == 0 {
		lessons = append(lessons, fmt.Sprintf(
			"plan with %d tasks completed cleanly in %s", len(summary.Nodes), summary.Elapsed.Round(time.Millisecond)))
	}
	return lessons
}
