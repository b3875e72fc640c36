package orchestrator

import (
	"time"

	"github.com/arbiterhq/arbiter/internal/reflection"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// RunStatus is the terminal status of a whole run.
type RunStatus string

const (
	// RunCompleted indicates every sink task finished successfully.
	RunCompleted RunStatus = "completed"
	// RunFailed indicates at least one sink task failed or was blocked.
	RunFailed RunStatus = "failed"
)

// NodeResult reports one task's terminal state.
type NodeResult struct {
	// TaskID is the task this result belongs to.
	TaskID string `json:"task_id"`
	// Title is the task's short description.
	Title string `json:"title"`
	// Status is the task's terminal status.
	Status models.TaskStatus `json:"status"`
	// Retries is how many times the task was retried.
	Retries int `json:"retries,omitempty"`
	// WinnerID is the winning candidate, if the task succeeded.
	WinnerID string `json:"winner_id,omitempty"`
	// FailureReason explains why the task failed or was blocked.
	FailureReason string `json:"failure_reason,omitempty"`
}

// PlanResult is the structured outcome of a run. A failed run still
// carries every node's terminal status and failure reason, never a
// silent empty answer.
type PlanResult struct {
	// PlanID is the executed plan's ID.
	PlanID string `json:"plan_id"`
	// Goal is the run's goal.
	Goal string `json:"goal"`
	// Status is the run's terminal status.
	Status RunStatus `json:"status"`
	// Answer is assembled from the sink tasks' winning responses, in
	// dependency order. Empty when the run failed.
	Answer string `json:"answer,omitempty"`
	// Nodes reports every task's terminal state, in plan order.
	Nodes []NodeResult `json:"nodes"`
	// Reflection is the run's reflection record, if reflection ran.
	Reflection *models.ReflectionRecord `json:"reflection,omitempty"`
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
}

// Failed returns the node results that ended Failed or Blocked.
func (r *PlanResult) Failed() []NodeResult {
	var failed []NodeResult
	for _, n := range r.Nodes {
		if n.Status == models.TaskStatusFailed || n.Status == models.TaskStatusBlocked {
			failed = append(failed, n)
		}
	}
	return failed
}

// buildResult derives a PlanResult from a plan whose tasks have all
// reached terminal status. The run fails iff any sink task did not
// finish Done; failed side branches alone do not fail the run.
func buildResult(plan *models.Plan, startedAt time.Time) *PlanResult {
	result := &PlanResult{
		PlanID:    plan.ID,
		Goal:      plan.Goal,
		Status:    RunCompleted,
		StartedAt: startedAt,
		Elapsed:   time.Since(startedAt),
	}

	for _, task := range plan.Tasks {
		node := NodeResult{
			TaskID:  task.ID,
			Title:   task.Title,
			Status:  task.Status,
			Retries: task.RetryCount,
		}
		if task.Outcome != nil {
			node.WinnerID = task.Outcome.WinnerID
		}
		switch task.Status {
		case models.TaskStatusFailed:
			node.FailureReason = task.Error
		case models.TaskStatusBlocked:
			node.FailureReason = task.BlockedReason
		}
		result.Nodes = append(result.Nodes, node)
	}

	for _, sink := range plan.Sinks() {
		if sink.Status != models.TaskStatusDone {
			result.Status = RunFailed
		}
	}
	if result.Status == RunCompleted {
		result.Answer = assembleAnswer(plan)
	}
	return result
}

// assembleAnswer joins the sink tasks' winning responses in plan
// order. Plan order is decomposition order, which already places
// dependencies before dependents.
func assembleAnswer(plan *models.Plan) string {
	answer := ""
	for _, sink := range plan.Sinks() {
		if sink.Outcome == nil || sink.Outcome.Winner == nil {
			continue
		}
		if answer != "" {
			answer += "\n\n"
		}
		answer += sink.Outcome.Winner.Text
	}
	return answer
}

// summarize converts a result to the reflection engine's input.
func summarize(result *PlanResult) *reflection.RunSummary {
	summary := &reflection.RunSummary{
		PlanID:  result.PlanID,
		Goal:    result.Goal,
		Failed:  result.Status == RunFailed,
		Elapsed: result.Elapsed,
	}
	for _, node := range result.Nodes {
		summary.Nodes = append(summary.Nodes, reflection.NodeOutcome{
			TaskID:        node.TaskID,
			Title:         node.Title,
			Status:        node.Status,
			Retries:       node.Retries,
			WinnerID:      node.WinnerID,
			FailureReason: node.FailureReason,
		})
	}
	return summary
}
