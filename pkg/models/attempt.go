package models

import "time"

// FailureKind classifies why a candidate's call failed.
type FailureKind string

const (
	// FailureTimeout indicates the call exceeded its deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureRateLimited indicates the backend rejected the call for rate limiting.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureAuth indicates the backend rejected the call's credentials.
	FailureAuth FailureKind = "auth_failure"
	// FailureUnavailable indicates the backend could not be reached or served an error.
	FailureUnavailable FailureKind = "unavailable"
	// FailureMalformed indicates the backend returned an unusable response.
	FailureMalformed FailureKind = "malformed_response"
)

// Valid returns true if the kind is a known value.
func (k FailureKind) Valid() bool {
	switch k {
	case FailureTimeout, FailureRateLimited, FailureAuth, FailureUnavailable, FailureMalformed:
		return true
	default:
		return false
	}
}

// Response is a successful backend answer with its call metadata.
type Response struct {
	// Text is the generated answer.
	Text string `json:"text"`
	// InputTokens is the number of prompt tokens consumed.
	InputTokens int `json:"input_tokens"`
	// OutputTokens is the number of completion tokens produced.
	OutputTokens int `json:"output_tokens"`
}

// TotalTokens returns the combined token count for the call.
func (r *Response) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// AttemptResult is the outcome of one candidate's call within a competition.
// Exactly one of Response or Failure is set.
type AttemptResult struct {
	// CandidateID identifies which candidate produced this result.
	CandidateID string `json:"candidate_id"`
	// Response is the successful payload, nil on failure.
	Response *Response `json:"response,omitempty"`
	// Failure classifies the error, empty on success.
	Failure FailureKind `json:"failure,omitempty"`
	// Reason is the human-readable failure detail.
	Reason string `json:"reason,omitempty"`
	// Latency is the observed wall-clock duration of the call.
	Latency time.Duration `json:"latency"`
}

// Succeeded returns true if the attempt produced a response.
func (a *AttemptResult) Succeeded() bool {
	return a.Response != nil
}
