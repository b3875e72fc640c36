package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arbiterhq/arbiter/internal/graph"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// completion is a worker's report for one finished node.
type completion struct {
	taskID  string
	outcome *models.CompetitionOutcome
	retries int
	err     error
}

// runLoop schedules ready tasks onto workers until every reachable
// task is terminal. Task status transitions happen only on this
// goroutine; workers report through the completion channel.
func (r *Runner) runLoop(ctx context.Context, plan *models.Plan, g *graph.DependencyGraph, opts Options) error {
	inflight := make(map[string]context.CancelFunc)
	completionCh := make(chan completion, opts.MaxConcurrency)

	cancelInflight := func() {
		for _, cancel := range inflight {
			cancel()
		}
	}

	for {
		select {
		case <-ctx.Done():
			cancelInflight()
			return ctx.Err()

		case c := <-completionCh:
			inflight[c.taskID]()
			delete(inflight, c.taskID)
			r.handleCompletion(plan, g, c)

		default:
			ready := g.Ready()
			if len(ready) == 0 && len(inflight) == 0 {
				// Nothing runnable and nothing in flight. Remaining
				// non-terminal tasks, if any, are unreachable.
				return nil
			}

			slots := opts.MaxConcurrency - len(inflight)
			if len(ready) == 0 || slots <= 0 {
				select {
				case <-ctx.Done():
					cancelInflight()
					return ctx.Err()
				case c := <-completionCh:
					inflight[c.taskID]()
					delete(inflight, c.taskID)
					r.handleCompletion(plan, g, c)
				case <-time.After(opts.PollInterval):
				}
				continue
			}

			if err := r.pause.WaitIfPaused(ctx); err != nil {
				cancelInflight()
				return err
			}

			for i, task := range ready {
				if i >= slots {
					break
				}
				r.startNode(ctx, plan, g, task, opts, inflight, completionCh)
			}
		}
	}
}

// startNode moves a task through Pending→Ready→Running and hands it to
// a worker goroutine.
func (r *Runner) startNode(ctx context.Context, plan *models.Plan, g *graph.DependencyGraph, task *models.Task, opts Options, inflight map[string]context.CancelFunc, completionCh chan completion) {
	if !g.Transition(task.ID, models.TaskStatusPending, models.TaskStatusReady) {
		return
	}
	r.emit(Event{
		Type: EventTaskQueued, PlanID: plan.ID, TaskID: task.ID,
		TaskTitle: task.Title, Timestamp: time.Now(),
	})
	if !g.Transition(task.ID, models.TaskStatusReady, models.TaskStatusRunning) {
		return
	}
	r.emit(Event{
		Type: EventTaskStarted, PlanID: plan.ID, TaskID: task.ID,
		TaskTitle: task.Title, Timestamp: time.Now(),
	})
	r.logger.Log("[run] task %s (%s) started", task.ID, task.Title)

	taskCtx, taskCancel := context.WithCancel(ctx)
	inflight[task.ID] = taskCancel

	go func(t *models.Task) {
		outcome, retries, err := r.executeNode(taskCtx, plan, t, opts)
		select {
		case completionCh <- completion{taskID: t.ID, outcome: outcome, retries: retries, err: err}:
		case <-ctx.Done():
		}
	}(task)
}

// handleCompletion records a worker's result and updates downstream
// readiness. A failed node blocks all of its transitive dependents.
func (r *Runner) handleCompletion(plan *models.Plan, g *graph.DependencyGraph, c completion) {
	task := g.Task(c.taskID)
	if task == nil {
		return
	}
	task.RetryCount = c.retries
	now := time.Now()
	task.CompletedAt = &now

	if c.err != nil {
		task.Error = c.err.Error()
		g.Transition(c.taskID, models.TaskStatusRunning, models.TaskStatusFailed)
		r.emit(Event{
			Type: EventTaskFailed, PlanID: plan.ID, TaskID: task.ID,
			TaskTitle: task.Title, Err: c.err, Timestamp: time.Now(),
		})
		r.logger.Log("[run] task %s failed after %d retries: %v", task.ID, c.retries, c.err)

		for _, blockedID := range g.MarkBlockedDependents(c.taskID) {
			blocked := g.Task(blockedID)
			r.emit(Event{
				Type: EventTaskBlocked, PlanID: plan.ID, TaskID: blockedID,
				TaskTitle: blocked.Title,
				Message:   fmt.Sprintf("dependency %s failed", task.Title),
				Timestamp: time.Now(),
			})
			r.logger.Log("[run] task %s blocked by %s", blockedID, c.taskID)
		}
		return
	}

	task.Outcome = c.outcome
	g.Transition(c.taskID, models.TaskStatusRunning, models.TaskStatusDone)
	r.emit(Event{
		Type: EventTaskCompleted, PlanID: plan.ID, TaskID: task.ID,
		TaskTitle: task.Title, WinnerID: c.outcome.WinnerID, Timestamp: time.Now(),
	})
	r.logger.Log("[run] task %s completed, winner %s", task.ID, c.outcome.WinnerID)
}

// executeNode runs one task's competition with retries and backoff.
// The returned retry count is how many attempts followed the first.
func (r *Runner) executeNode(ctx context.Context, plan *models.Plan, task *models.Task, opts Options) (*models.CompetitionOutcome, int, error) {
	req := &models.Request{ID: task.ID, Prompt: taskPrompt(plan, task)}

	var lastErr error
	for attempt := 0; attempt <= opts.RetryLimit; attempt++ {
		if attempt > 0 {
			r.emit(Event{
				Type: EventTaskRetrying, PlanID: plan.ID, TaskID: task.ID,
				TaskTitle: task.Title,
				Message:   fmt.Sprintf("retry %d of %d", attempt, opts.RetryLimit),
				Err:       lastErr,
				Timestamp: time.Now(),
			})
			delay := opts.Backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, attempt - 1, lastErr
			case <-time.After(delay):
			}
		}

		outcome, err := r.competitor.Compete(ctx, req, opts.Candidates, opts.NodeDeadline)
		if err == nil {
			return outcome, attempt, nil
		}
		lastErr = err
		r.logger.Log("[run] task %s attempt %d failed: %v", task.ID, attempt+1, err)

		if ctx.Err() != nil {
			return nil, attempt, lastErr
		}
	}
	return nil, opts.RetryLimit, lastErr
}

// taskPrompt builds the request prompt for a task, appending the
// winning responses of its completed dependencies as context.
func taskPrompt(plan *models.Plan, task *models.Task) string {
	var b strings.Builder
	if task.Description != "" {
		b.WriteString(task.Description)
	} else {
		b.WriteString(task.Title)
	}

	wroteHeader := false
	for _, depID := range task.DependsOn {
		dep := plan.Task(depID)
		if dep == nil || dep.Outcome == nil || dep.Outcome.Winner == nil {
			continue
		}
		if !wroteHeader {
			b.WriteString("\n\nResults from prerequisite tasks:\n")
			wroteHeader = true
		}
		fmt.Fprintf(&b, "\n## %s\n%s\n", dep.Title, dep.Outcome.Winner.Text)
	}
	return b.String()
}
