// Package dispatch fans a request out to candidate backends in
// parallel, collects results within a deadline, and selects a winner.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/arbiterhq/arbiter/internal/adapter"
	"github.com/arbiterhq/arbiter/internal/scoring"
	"github.com/arbiterhq/arbiter/internal/stats"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// DefaultDeadline bounds a competition when the caller passes zero.
const DefaultDeadline = 60 * time.Second

// Dispatcher runs competitions across candidate backends.
type Dispatcher struct {
	registry  *adapter.Registry
	scorer    *scoring.Scorer
	collector stats.Collector
}

// New creates a dispatcher. A nil collector disables stats emission.
func New(registry *adapter.Registry, scorer *scoring.Scorer, collector stats.Collector) *Dispatcher {
	if collector == nil {
		collector = stats.Nop{}
	}
	return &Dispatcher{registry: registry, scorer: scorer, collector: collector}
}

// indexedResult carries one candidate's attempt back to the barrier.
type indexedResult struct {
	index   int
	attempt *models.AttemptResult
}

// Compete invokes every candidate's adapter concurrently and waits for
// all of them or the overall deadline, whichever comes first. Candidates
// still in flight at the deadline are recorded as timeouts and their
// eventual results are discarded. Scoring starts only after the wait
// completes; partial results never leak into the scorer.
func (d *Dispatcher) Compete(ctx context.Context, req *models.Request, candidates []*models.Candidate, deadline time.Duration) (*models.CompetitionOutcome, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if deadline <= 0 {
		deadline = DefaultDeadline
	}

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// Buffered to the candidate count so late goroutines never block
	// after the barrier stops reading.
	results := make(chan indexedResult, len(candidates))

	for i, cand := range candidates {
		go func(i int, cand *models.Candidate) {
			results <- indexedResult{index: i, attempt: d.callCandidate(cctx, req, cand)}
		}(i, cand)
	}

	attempts := make([]*models.AttemptResult, len(candidates))
	remaining := len(candidates)
wait:
	for remaining > 0 {
		select {
		case r := <-results:
			attempts[r.index] = r.attempt
			remaining--
		case <-cctx.Done():
			break wait
		}
	}
	cancel()

	// Attempts that finished at the wire but were not yet read are
	// real results, not timeouts.
	drainQueued(results, attempts)

	// Whatever is still missing timed out at the barrier.
	for i, a := range attempts {
		if a == nil {
			attempts[i] = &models.AttemptResult{
				CandidateID: candidates[i].ID,
				Failure:     models.FailureTimeout,
				Reason:      "competition deadline reached",
				Latency:     deadline,
			}
		}
	}

	scores := d.scorer.Score(req, attempts, candidates, deadline)
	winner, err := scoring.Select(scores)
	if err != nil {
		return nil, &AllFailedError{RequestID: req.ID, Failures: failures(attempts)}
	}

	outcome := &models.CompetitionOutcome{
		RequestID: req.ID,
		WinnerID:  winner.CandidateID,
		Attempts:  attempts,
		Scores:    scores,
		Elapsed:   time.Since(start),
	}
	if a := outcome.Attempt(winner.CandidateID); a != nil {
		outcome.Winner = a.Response
	}

	d.emit(outcome, candidates)
	return outcome, nil
}

// drainQueued consumes results already buffered when the deadline
// fired. It never blocks; anything still in flight stays missing.
func drainQueued(results <-chan indexedResult, attempts []*models.AttemptResult) {
	for {
		select {
		case r := <-results:
			if attempts[r.index] == nil {
				attempts[r.index] = r.attempt
			}
		default:
			return
		}
	}
}

// callCandidate runs one adapter call bounded by the candidate's own
// timeout and the competition context, and converts the result into an
// attempt record.
func (d *Dispatcher) callCandidate(ctx context.Context, req *models.Request, cand *models.Candidate) *models.AttemptResult {
	ad, err := d.registry.Get(cand.Adapter)
	if err != nil {
		return &models.AttemptResult{
			CandidateID: cand.ID,
			Failure:     models.FailureUnavailable,
			Reason:      err.Error(),
		}
	}

	callCtx := ctx
	if cand.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cand.Timeout)
		defer cancel()
	}

	t0 := time.Now()
	resp, err := ad.Generate(callCtx, cand.Model, req.Prompt)
	latency := time.Since(t0)

	if err != nil {
		kind := adapter.Classify(err)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			kind = models.FailureTimeout
		}
		return &models.AttemptResult{
			CandidateID: cand.ID,
			Failure:     kind,
			Reason:      err.Error(),
			Latency:     latency,
		}
	}

	return &models.AttemptResult{
		CandidateID: cand.ID,
		Response:    resp,
		Latency:     latency,
	}
}

func (d *Dispatcher) emit(outcome *models.CompetitionOutcome, candidates []*models.Candidate) {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	d.collector.RecordCompetition(stats.Record{
		RequestID:  outcome.RequestID,
		Candidates: ids,
		Scores:     outcome.Scores,
		WinnerID:   outcome.WinnerID,
		LatencyMs:  outcome.Elapsed.Milliseconds(),
		Timestamp:  time.Now(),
	})
}

func failures(attempts []*models.AttemptResult) []Failure {
	out := make([]Failure, 0, len(attempts))
	for _, a := range attempts {
		if a.Succeeded() {
			continue
		}
		out = append(out, Failure{CandidateID: a.CandidateID, Kind: a.Failure, Reason: a.Reason})
	}
	return out
}
