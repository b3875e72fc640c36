package scoring

import (
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

func scoringFixture() (*models.Request, []*models.Candidate) {
	req := &models.Request{ID: "req-1", Prompt: "explain the scheduler design"}
	candidates := []*models.Candidate{
		{ID: "a", Adapter: "mock", CostPerToken: 0.001},
		{ID: "b", Adapter: "mock", CostPerToken: 0.002},
		{ID: "c", Adapter: "mock", CostPerToken: 0.003},
	}
	return req, candidates
}

func TestScorerExcludesFailures(t *testing.T) {
	req, candidates := scoringFixture()
	scorer := NewScorer(models.DefaultWeights(), nil)

	attempts := []*models.AttemptResult{
		{CandidateID: "a", Response: &models.Response{Text: "answer one", OutputTokens: 10}, Latency: time.Second},
		{CandidateID: "b", Failure: models.FailureTimeout, Reason: "deadline"},
	}

	vectors := scorer.Score(req, attempts, candidates, 30*time.Second)
	if len(vectors) != 1 {
		t.Fatalf("expected 1 score vector, got %d", len(vectors))
	}
	if vectors[0].CandidateID != "a" {
		t.Errorf("expected vector for candidate a, got %s", vectors[0].CandidateID)
	}
}

func TestScorerComponentsBounded(t *testing.T) {
	req, candidates := scoringFixture()
	scorer := NewScorer(models.DefaultWeights(), nil)

	attempts := []*models.AttemptResult{
		{CandidateID: "a", Response: &models.Response{Text: "short", OutputTokens: 5}, Latency: 100 * time.Millisecond},
		{CandidateID: "b", Response: &models.Response{Text: "a considerably longer and more structured answer.\nWith lines.", OutputTokens: 50}, Latency: 2 * time.Second},
		{CandidateID: "c", Response: &models.Response{Text: "medium sized answer here", OutputTokens: 20}, Latency: time.Second},
	}

	vectors := scorer.Score(req, attempts, candidates, 30*time.Second)
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for _, v := range vectors {
		for name, comp := range map[string]float64{"quality": v.Quality, "latency": v.Latency, "cost": v.Cost} {
			if comp < 0 || comp > 1 {
				t.Errorf("candidate %s %s component %f outside [0,1]", v.CandidateID, name, comp)
			}
		}
	}
}

func TestScorerFasterIsBetter(t *testing.T) {
	req, candidates := scoringFixture()
	// Latency only.
	scorer := NewScorer(models.Weights{Latency: 1}, func(*models.Request, *models.Response) float64 { return 1 })

	attempts := []*models.AttemptResult{
		{CandidateID: "a", Response: &models.Response{Text: "x"}, Latency: 3 * time.Second},
		{CandidateID: "b", Response: &models.Response{Text: "x"}, Latency: time.Second},
	}

	vectors := scorer.Score(req, attempts, candidates, 30*time.Second)
	var a, b *models.ScoreVector
	for _, v := range vectors {
		switch v.CandidateID {
		case "a":
			a = v
		case "b":
			b = v
		}
	}
	if b.Combined <= a.Combined {
		t.Errorf("expected faster candidate to score higher: a=%f b=%f", a.Combined, b.Combined)
	}
}

func TestScorerLatencyCappedAtDeadline(t *testing.T) {
	req, candidates := scoringFixture()
	scorer := NewScorer(models.DefaultWeights(), nil)

	attempts := []*models.AttemptResult{
		{CandidateID: "a", Response: &models.Response{Text: "x"}, Latency: time.Minute},
	}

	vectors := scorer.Score(req, attempts, candidates, 10*time.Second)
	if vectors[0].RawLatency != 10*time.Second {
		t.Errorf("expected raw latency capped at deadline, got %v", vectors[0].RawLatency)
	}
}

func TestScorerDegenerateSetScoresEqual(t *testing.T) {
	req, candidates := scoringFixture()
	scorer := NewScorer(models.DefaultWeights(), func(*models.Request, *models.Response) float64 { return 0.7 })

	attempts := []*models.AttemptResult{
		{CandidateID: "a", Response: &models.Response{Text: "x", OutputTokens: 10}, Latency: time.Second},
	}

	vectors := scorer.Score(req, attempts, candidates, 30*time.Second)
	v := vectors[0]
	if v.Quality != 1 || v.Cost != 1 {
		t.Errorf("expected degenerate normalization to map quality and cost to 1, got %+v", v)
	}
	wantLatency := 1 - float64(time.Second)/float64(30*time.Second)
	if v.Latency != wantLatency {
		t.Errorf("expected latency scaled against deadline (%f), got %f", wantLatency, v.Latency)
	}
}

func TestScorerLatencyJitterDoesNotOutweighQuality(t *testing.T) {
	req := &models.Request{ID: "req-1", Prompt: "explain the scheduler design"}
	candidates := []*models.Candidate{
		{ID: "a", Adapter: "mock", CostPerToken: 0.001},
		{ID: "b", Adapter: "mock", CostPerToken: 0.001},
		{ID: "c", Adapter: "mock", CostPerToken: 0.001},
	}
	quality := map[string]float64{"fast": 0.8, "mid": 0.6, "best": 0.9}
	scorer := NewScorer(models.Weights{Quality: 1, Latency: 1, Cost: 1},
		func(_ *models.Request, resp *models.Response) float64 { return quality[resp.Text] })

	// All three respond near-instantly; the spread is pure jitter.
	attempts := []*models.AttemptResult{
		{CandidateID: "a", Response: &models.Response{Text: "fast", OutputTokens: 10}, Latency: 100 * time.Microsecond},
		{CandidateID: "b", Response: &models.Response{Text: "mid", OutputTokens: 10}, Latency: 200 * time.Microsecond},
		{CandidateID: "c", Response: &models.Response{Text: "best", OutputTokens: 10}, Latency: 300 * time.Microsecond},
	}

	vectors := scorer.Score(req, attempts, candidates, 5*time.Second)
	winner, err := Select(vectors)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if winner.CandidateID != "c" {
		t.Errorf("expected the 0.9-quality candidate to win, got %s", winner.CandidateID)
	}
}

func TestHeuristicQualityEmptyResponse(t *testing.T) {
	q := HeuristicQuality()
	req := &models.Request{Prompt: "anything"}

	if got := q(req, &models.Response{Text: "   "}); got != 0 {
		t.Errorf("expected 0 for blank response, got %f", got)
	}
	if got := q(req, &models.Response{Text: "a real answer about anything.\nWith detail."}); got <= 0 {
		t.Errorf("expected positive score for real response, got %f", got)
	}
}

func TestNewExprQuality(t *testing.T) {
	q, err := NewExprQuality("words / 10")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	req := &models.Request{}
	got := q(req, &models.Response{Text: "one two three four five"})
	if got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}

	// Clamped above 1.
	got = q(req, &models.Response{Text: "a b c d e f g h i j k l m n o p q r s t"})
	if got != 1 {
		t.Errorf("expected clamp to 1, got %f", got)
	}
}

func TestNewExprQualityBadExpression(t *testing.T) {
	if _, err := NewExprQuality("words +"); err == nil {
		t.Error("expected compile error for malformed expression")
	}
}

func TestNewExprQualityAllVariables(t *testing.T) {
	q, err := NewExprQuality("(chars + lines + words + input_tokens + output_tokens) > 0 ? 1.0 : 0.0")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	got := q(&models.Request{}, &models.Response{Text: "hello world", InputTokens: 3, OutputTokens: 2})
	if got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
}

func TestNewExprQualityUnknownVariable(t *testing.T) {
	if _, err := NewExprQuality("tokens / 10"); err == nil {
		t.Error("expected compile error for undeclared variable")
	}
}
