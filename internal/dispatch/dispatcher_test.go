package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/internal/adapter"
	"github.com/arbiterhq/arbiter/internal/scoring"
	"github.com/arbiterhq/arbiter/internal/stats"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// qualityByText scores responses by a fixed table, making competition
// outcomes fully controlled in tests.
func qualityByText(table map[string]float64) scoring.QualityFunc {
	return func(_ *models.Request, resp *models.Response) float64 {
		return table[resp.Text]
	}
}

func testDispatcher(mock *adapter.MockAdapter, quality scoring.QualityFunc) *Dispatcher {
	reg := adapter.NewRegistry()
	reg.Register(mock)
	scorer := scoring.NewScorer(models.Weights{Quality: 1, Latency: 1, Cost: 1}, quality)
	return New(reg, scorer, nil)
}

func candidate(id, model string) *models.Candidate {
	return &models.Candidate{ID: id, Adapter: "mock", Model: model, CostPerToken: 0.001}
}

func TestCompeteNoCandidates(t *testing.T) {
	d := testDispatcher(adapter.NewMockAdapter(), nil)

	_, err := d.Compete(context.Background(), &models.Request{ID: "r"}, nil, time.Second)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestCompetePicksHighestScore(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Script("m-a", adapter.MockScript{Text: "answer-a", OutputTokens: 10})
	mock.Script("m-b", adapter.MockScript{Text: "answer-b", OutputTokens: 10})
	mock.Script("m-c", adapter.MockScript{Text: "answer-c", OutputTokens: 10})

	d := testDispatcher(mock, qualityByText(map[string]float64{
		"answer-a": 0.8,
		"answer-b": 0.6,
		"answer-c": 0.9,
	}))

	candidates := []*models.Candidate{
		candidate("a", "m-a"), candidate("b", "m-b"), candidate("c", "m-c"),
	}

	outcome, err := d.Compete(context.Background(), &models.Request{ID: "r", Prompt: "q"}, candidates, 5*time.Second)
	if err != nil {
		t.Fatalf("Compete failed: %v", err)
	}
	if outcome.WinnerID != "c" {
		t.Errorf("expected winner c, got %s", outcome.WinnerID)
	}
	if outcome.Winner == nil || outcome.Winner.Text != "answer-c" {
		t.Errorf("expected winning response answer-c, got %+v", outcome.Winner)
	}
	if len(outcome.Attempts) != 3 {
		t.Errorf("expected 3 attempts retained, got %d", len(outcome.Attempts))
	}
}

func TestCompeteTimedOutCandidateDoesNotAffectWinner(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Script("m-a", adapter.MockScript{Text: "answer-a", OutputTokens: 10})
	mock.Script("m-b", adapter.MockScript{Text: "answer-b", OutputTokens: 10})
	mock.Script("m-c", adapter.MockScript{Text: "answer-c", OutputTokens: 10})
	mock.Script("m-slow", adapter.MockScript{Text: "late", Delay: 5 * time.Second})

	d := testDispatcher(mock, qualityByText(map[string]float64{
		"answer-a": 0.8,
		"answer-b": 0.6,
		"answer-c": 0.9,
	}))

	candidates := []*models.Candidate{
		candidate("a", "m-a"), candidate("b", "m-b"),
		candidate("c", "m-c"), candidate("slow", "m-slow"),
	}

	outcome, err := d.Compete(context.Background(), &models.Request{ID: "r", Prompt: "q"}, candidates, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("Compete failed: %v", err)
	}
	if outcome.WinnerID != "c" {
		t.Errorf("expected winner c, got %s", outcome.WinnerID)
	}

	slow := outcome.Attempt("slow")
	if slow == nil {
		t.Fatal("expected an attempt recorded for the slow candidate")
	}
	if slow.Failure != models.FailureTimeout {
		t.Errorf("expected slow candidate recorded as timeout, got %s", slow.Failure)
	}
	if outcome.Score("slow") != nil {
		t.Error("timed-out candidate must not be scored")
	}
}

func TestCompeteAllFailed(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Script("m-a", adapter.MockScript{Fail: models.FailureRateLimited})
	mock.Script("m-b", adapter.MockScript{Fail: models.FailureAuth})
	mock.Script("m-c", adapter.MockScript{Fail: models.FailureUnavailable})

	d := testDispatcher(mock, nil)

	candidates := []*models.Candidate{
		candidate("a", "m-a"), candidate("b", "m-b"), candidate("c", "m-c"),
	}

	_, err := d.Compete(context.Background(), &models.Request{ID: "r"}, candidates, time.Second)
	var allFailed *AllFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllFailedError, got %v", err)
	}
	if len(allFailed.Failures) != 3 {
		t.Errorf("expected 3 failure reasons, got %d", len(allFailed.Failures))
	}

	kinds := make(map[string]models.FailureKind)
	for _, f := range allFailed.Failures {
		kinds[f.CandidateID] = f.Kind
	}
	if kinds["a"] != models.FailureRateLimited || kinds["b"] != models.FailureAuth || kinds["c"] != models.FailureUnavailable {
		t.Errorf("failure kinds not preserved: %v", kinds)
	}
}

func TestCompeteReturnsByDeadline(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Script("m-slow", adapter.MockScript{Delay: 10 * time.Second})

	d := testDispatcher(mock, nil)

	start := time.Now()
	_, err := d.Compete(context.Background(), &models.Request{ID: "r"}, []*models.Candidate{candidate("slow", "m-slow")}, 100*time.Millisecond)
	elapsed := time.Since(start)

	var allFailed *AllFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllFailedError, got %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("compete blocked past its deadline: %v", elapsed)
	}
}

// recordingCollector captures records synchronously for assertions.
type recordingCollector struct {
	records []stats.Record
}

func (r *recordingCollector) RecordCompetition(rec stats.Record) {
	r.records = append(r.records, rec)
}

func TestCompeteEmitsStats(t *testing.T) {
	mock := adapter.NewMockAdapter()
	mock.Script("m-a", adapter.MockScript{Text: "answer", OutputTokens: 5})

	reg := adapter.NewRegistry()
	reg.Register(mock)
	collector := &recordingCollector{}
	d := New(reg, scoring.NewScorer(models.DefaultWeights(), nil), collector)

	_, err := d.Compete(context.Background(), &models.Request{ID: "r-9", Prompt: "q"}, []*models.Candidate{candidate("a", "m-a")}, time.Second)
	if err != nil {
		t.Fatalf("Compete failed: %v", err)
	}

	if len(collector.records) != 1 {
		t.Fatalf("expected 1 stats record, got %d", len(collector.records))
	}
	rec := collector.records[0]
	if rec.RequestID != "r-9" || rec.WinnerID != "a" {
		t.Errorf("unexpected stats record: %+v", rec)
	}
}

func TestDrainQueuedRecoversBufferedResults(t *testing.T) {
	results := make(chan indexedResult, 3)
	results <- indexedResult{index: 1, attempt: &models.AttemptResult{
		CandidateID: "b",
		Response:    &models.Response{Text: "made it", OutputTokens: 4},
		Latency:     90 * time.Millisecond,
	}}

	attempts := make([]*models.AttemptResult, 3)
	attempts[0] = &models.AttemptResult{CandidateID: "a", Response: &models.Response{Text: "early"}}
	drainQueued(results, attempts)

	if attempts[1] == nil || !attempts[1].Succeeded() {
		t.Fatal("expected the buffered result to be recovered as a success")
	}
	if attempts[2] != nil {
		t.Error("candidate still in flight must remain missing")
	}
	if attempts[0].Response.Text != "early" {
		t.Error("already-collected attempt must not be overwritten")
	}
}
