package models

import "time"

// Weights controls the contribution of each score axis to the combined score.
// Weights are normalized to sum to 1 before use.
type Weights struct {
	Quality float64 `json:"quality" mapstructure:"quality"`
	Latency float64 `json:"latency" mapstructure:"latency"`
	Cost    float64 `json:"cost" mapstructure:"cost"`
}

// DefaultWeights favor quality over latency over cost.
func DefaultWeights() Weights {
	return Weights{Quality: 0.5, Latency: 0.3, Cost: 0.2}
}

// Normalized returns the weights scaled so they sum to 1.
// All-zero weights fall back to the defaults.
func (w Weights) Normalized() Weights {
	sum := w.Quality + w.Latency + w.Cost
	if sum <= 0 {
		return DefaultWeights().Normalized()
	}
	return Weights{
		Quality: w.Quality / sum,
		Latency: w.Latency / sum,
		Cost:    w.Cost / sum,
	}
}

// ScoreVector holds the normalized score components for one attempt.
// Quality, Latency, and Cost are all mapped into [0,1], higher is better,
// before being combined so no axis dominates through its native units.
type ScoreVector struct {
	// CandidateID identifies the scored attempt.
	CandidateID string `json:"candidate_id"`
	// Quality is the normalized quality-proxy component.
	Quality float64 `json:"quality"`
	// Latency is the normalized latency component (faster is higher).
	Latency float64 `json:"latency"`
	// Cost is the normalized cost component (cheaper is higher).
	Cost float64 `json:"cost"`
	// Combined is the weighted sum of the three components.
	Combined float64 `json:"combined"`

	// RawLatency and RawCost keep the pre-normalization values for
	// deterministic tie-breaking and for the stats collaborator.
	RawLatency time.Duration `json:"raw_latency"`
	RawCost    float64       `json:"raw_cost"`
	// Order is the candidate's declaration position in the competition.
	Order int `json:"order"`
}
