package orchestrator

import "time"

// EventType represents the type of run event.
type EventType string

const (
	// EventPlanStarted indicates a plan run has begun.
	EventPlanStarted EventType = "plan_started"
	// EventTaskQueued indicates a task is ready and queued for execution.
	EventTaskQueued EventType = "task_queued"
	// EventTaskStarted indicates a task's competition is in flight.
	EventTaskStarted EventType = "task_started"
	// EventTaskRetrying indicates a task attempt failed and will be retried.
	EventTaskRetrying EventType = "task_retrying"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed after exhausting retries.
	EventTaskFailed EventType = "task_failed"
	// EventTaskBlocked indicates a task was blocked by a failed dependency.
	EventTaskBlocked EventType = "task_blocked"
	// EventPlanDone indicates the run reached a terminal result.
	EventPlanDone EventType = "plan_done"
)

// Event is emitted by the runner as a plan progresses. Subscribers
// (the CLI progress view, tests) receive these through the emitter.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// PlanID is the run this event belongs to.
	PlanID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// TaskTitle is the title of the related task, if applicable.
	TaskTitle string
	// WinnerID is the winning candidate for completion events.
	WinnerID string
	// Message provides additional context about the event.
	Message string
	// Err contains error details for failure events.
	Err error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
