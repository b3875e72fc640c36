package models

import "time"

// TaskStatus represents the current state of a task node.
type TaskStatus string

const (
	// TaskStatusPending indicates the task is waiting on dependencies.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusReady indicates all dependencies are done and the task may run.
	TaskStatusReady TaskStatus = "ready"
	// TaskStatusRunning indicates the task's competition is in flight.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task failed after exhausting retries.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusBlocked indicates a dependency failed; the task never executes.
	TaskStatusBlocked TaskStatus = "blocked"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusReady, TaskStatusRunning,
		TaskStatusDone, TaskStatusFailed, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is final and will never change.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusDone, TaskStatusFailed, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// Task is a unit of work inside a Plan. Its description must resolve
// into a single request the competition dispatcher can execute.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description is the full request text for this task.
	Description string `json:"description,omitempty"`
	// DependsOn lists task IDs that must complete before this task.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// RetryCount is the number of times this task has been retried.
	RetryCount int `json:"retry_count,omitempty"`
	// BlockedReason records why the task was blocked, if it was.
	BlockedReason string `json:"blocked_reason,omitempty"`
	// Error contains the failure message if the task failed.
	Error string `json:"error,omitempty"`
	// Outcome is the task's competition outcome once executed.
	Outcome *CompetitionOutcome `json:"outcome,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task reached a terminal status, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
