package models

import "time"

// Capabilities describes what a backend candidate can do.
type Capabilities struct {
	// Tools indicates whether the backend supports tool/function calling.
	Tools bool `json:"tools" yaml:"tools"`
	// MaxContext is the maximum context window in tokens.
	MaxContext int `json:"max_context" yaml:"max_context"`
	// Streaming indicates whether the backend supports streamed output.
	Streaming bool `json:"streaming" yaml:"streaming"`
}

// Candidate identifies one backend configured to attempt a request.
// A Candidate is immutable once constructed for a request.
type Candidate struct {
	// ID is the unique identifier for this candidate.
	ID string `json:"id" yaml:"id"`
	// Adapter is the adapter family that serves this candidate
	// (e.g. "anthropic", "openai", "google", "mock").
	Adapter string `json:"adapter" yaml:"adapter"`
	// Model is the backend model identifier passed to the adapter.
	Model string `json:"model" yaml:"model"`
	// Capabilities describes the declared capabilities of the backend.
	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`
	// CostPerToken is the declared cost per token in USD.
	CostPerToken float64 `json:"cost_per_token" yaml:"cost_per_token"`
	// Timeout is the per-call timeout for this candidate.
	// Zero means the competition's overall deadline applies alone.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Validate checks that the candidate has the required fields set.
func (c *Candidate) Validate() error {
	if c.ID == "" {
		return errEmptyField("candidate id")
	}
	if c.Adapter == "" {
		return errEmptyField("candidate adapter")
	}
	if c.CostPerToken < 0 {
		return errNegativeField("candidate cost_per_token")
	}
	return nil
}
