package models

import "time"

// OutcomeClass classifies how a run finished.
type OutcomeClass string

const (
	// OutcomeSucceeded indicates every required node completed cleanly.
	OutcomeSucceeded OutcomeClass = "succeeded"
	// OutcomeSucceededWithCaveats indicates the goal was reached but some
	// branches failed or needed retries.
	OutcomeSucceededWithCaveats OutcomeClass = "succeeded_with_caveats"
	// OutcomeFailed indicates the run did not reach its goal.
	OutcomeFailed OutcomeClass = "failed"
)

// Valid returns true if the class is a known value.
func (c OutcomeClass) Valid() bool {
	switch c {
	case OutcomeSucceeded, OutcomeSucceededWithCaveats, OutcomeFailed:
		return true
	default:
		return false
	}
}

// ReflectionRecord captures the pre-execution risks and post-execution
// lessons for exactly one plan (or single-request) run.
type ReflectionRecord struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`
	// PlanID is the run this record belongs to.
	PlanID string `json:"plan_id"`
	// Goal is the run's goal, kept for related-lesson retrieval.
	Goal string `json:"goal"`
	// Risks lists concerns identified before execution.
	Risks []string `json:"risks,omitempty"`
	// Lessons lists takeaways extracted after execution.
	Lessons []string `json:"lessons,omitempty"`
	// Classification is the run's outcome class.
	Classification OutcomeClass `json:"classification,omitempty"`
	// CreatedAt is when the record was created.
	CreatedAt time.Time `json:"created_at"`
}
