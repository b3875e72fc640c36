package models

import "time"

// CompetitionOutcome is the full record of one fan-out-and-select round.
// It is never mutated after creation; the stats collaborator receives it
// as-is for audit.
type CompetitionOutcome struct {
	// RequestID identifies the request this competition served.
	RequestID string `json:"request_id"`
	// WinnerID is the candidate whose response was selected.
	WinnerID string `json:"winner_id"`
	// Winner is the selected response.
	Winner *Response `json:"winner"`
	// Attempts lists every candidate's result, in declaration order.
	Attempts []*AttemptResult `json:"attempts"`
	// Scores lists the score vectors for the successful attempts.
	Scores []*ScoreVector `json:"scores"`
	// Elapsed is the wall-clock duration of the whole competition.
	Elapsed time.Duration `json:"elapsed"`
}

// Attempt returns the attempt result for a candidate, or nil.
func (o *CompetitionOutcome) Attempt(candidateID string) *AttemptResult {
	for _, a := range o.Attempts {
		if a.CandidateID == candidateID {
			return a
		}
	}
	return nil
}

// Score returns the score vector for a candidate, or nil.
func (o *CompetitionOutcome) Score(candidateID string) *ScoreVector {
	for _, s := range o.Scores {
		if s.CandidateID == candidateID {
			return s
		}
	}
	return nil
}
