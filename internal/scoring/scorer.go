// Package scoring turns attempt results into comparable score vectors
// and selects a competition winner deterministically.
package scoring

import (
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// QualityFunc computes a quality proxy for one successful response.
// Implementations return a non-negative value; the scorer normalizes it
// against the competition's other successful attempts, so only relative
// ordering matters.
type QualityFunc func(req *models.Request, resp *models.Response) float64

// Scorer computes normalized quality/latency/cost score vectors for the
// successful attempts of one competition.
type Scorer struct {
	weights models.Weights
	quality QualityFunc
}

// NewScorer creates a scorer with the given weights and quality proxy.
// A nil quality function falls back to the shape heuristic.
func NewScorer(weights models.Weights, quality QualityFunc) *Scorer {
	if quality == nil {
		quality = HeuristicQuality()
	}
	return &Scorer{weights: weights.Normalized(), quality: quality}
}

// Score computes score vectors for the successful attempts. Failed
// attempts are excluded. Quality and cost are min-max normalized across
// the successful set so their scale is self-relative per competition.
// Latency is inverse-scaled against the overall deadline (and capped at
// it), not against the observed span, so sub-millisecond jitter between
// near-instant responses cannot stretch into a full-scale component.
func (s *Scorer) Score(req *models.Request, attempts []*models.AttemptResult, candidates []*models.Candidate, deadline time.Duration) []*models.ScoreVector {
	byID := make(map[string]*models.Candidate, len(candidates))
	order := make(map[string]int, len(candidates))
	for i, c := range candidates {
		byID[c.ID] = c
		order[c.ID] = i
	}

	var vectors []*models.ScoreVector
	var qualities, latencies, costs []float64

	for _, a := range attempts {
		if !a.Succeeded() {
			continue
		}
		cand := byID[a.CandidateID]
		if cand == nil {
			continue
		}

		lat := a.Latency
		if deadline > 0 && lat > deadline {
			lat = deadline
		}
		cost := cand.CostPerToken * float64(a.Response.TotalTokens())

		vectors = append(vectors, &models.ScoreVector{
			CandidateID: a.CandidateID,
			RawLatency:  lat,
			RawCost:     cost,
			Order:       order[a.CandidateID],
		})
		qualities = append(qualities, s.quality(req, a.Response))
		latencies = append(latencies, lat.Seconds())
		costs = append(costs, cost)
	}

	if len(vectors) == 0 {
		return nil
	}

	qn := normalize(qualities, false)
	ln := scaleLatencies(latencies, deadline)
	cn := normalize(costs, true)

	for i, v := range vectors {
		v.Quality = qn[i]
		v.Latency = ln[i]
		v.Cost = cn[i]
		v.Combined = s.weights.Quality*v.Quality +
			s.weights.Latency*v.Latency +
			s.weights.Cost*v.Cost
	}

	return vectors
}

// scaleLatencies maps latency seconds into [0,1] against the deadline;
// an instant response scores 1 and a response at the deadline scores 0.
// Without a deadline it falls back to min-max scaling.
func scaleLatencies(latencies []float64, deadline time.Duration) []float64 {
	if deadline <= 0 {
		return normalize(latencies, true)
	}
	out := make([]float64, len(latencies))
	for i, l := range latencies {
		out[i] = 1 - l/deadline.Seconds()
	}
	return out
}

// normalize maps values into [0,1] with min-max scaling. With invert
// set, lower raw values score higher. A degenerate set (all values
// equal) maps every entry to 1.
func normalize(values []float64, invert bool) []float64 {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(values))
	span := max - min
	for i, v := range values {
		if span == 0 {
			out[i] = 1
			continue
		}
		n := (v - min) / span
		if invert {
			n = 1 - n
		}
		out[i] = n
	}
	return out
}
