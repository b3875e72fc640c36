package scoring

import (
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

func TestSelectMaxScore(t *testing.T) {
	scores := []*models.ScoreVector{
		{CandidateID: "a", Combined: 0.8, Order: 0},
		{CandidateID: "b", Combined: 0.6, Order: 1},
		{CandidateID: "c", Combined: 0.9, Order: 2},
	}

	winner, err := Select(scores)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if winner.CandidateID != "c" {
		t.Errorf("expected winner c, got %s", winner.CandidateID)
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, err := Select(nil); err != ErrNoScores {
		t.Errorf("expected ErrNoScores, got %v", err)
	}
}

func TestSelectTieBreakCost(t *testing.T) {
	scores := []*models.ScoreVector{
		{CandidateID: "pricey", Combined: 0.7, RawCost: 0.5, RawLatency: time.Second, Order: 0},
		{CandidateID: "cheap", Combined: 0.7, RawCost: 0.1, RawLatency: 2 * time.Second, Order: 1},
	}

	winner, _ := Select(scores)
	if winner.CandidateID != "cheap" {
		t.Errorf("expected cost tie-break to pick cheap, got %s", winner.CandidateID)
	}
}

func TestSelectTieBreakLatency(t *testing.T) {
	scores := []*models.ScoreVector{
		{CandidateID: "slow", Combined: 0.7, RawCost: 0.1, RawLatency: 3 * time.Second, Order: 0},
		{CandidateID: "fast", Combined: 0.7, RawCost: 0.1, RawLatency: time.Second, Order: 1},
	}

	winner, _ := Select(scores)
	if winner.CandidateID != "fast" {
		t.Errorf("expected latency tie-break to pick fast, got %s", winner.CandidateID)
	}
}

func TestSelectTieBreakDeclarationOrder(t *testing.T) {
	scores := []*models.ScoreVector{
		{CandidateID: "second", Combined: 0.7, RawCost: 0.1, RawLatency: time.Second, Order: 1},
		{CandidateID: "first", Combined: 0.7, RawCost: 0.1, RawLatency: time.Second, Order: 0},
	}

	winner, _ := Select(scores)
	if winner.CandidateID != "first" {
		t.Errorf("expected declaration order tie-break to pick first, got %s", winner.CandidateID)
	}
}

func TestSelectDeterministic(t *testing.T) {
	scores := []*models.ScoreVector{
		{CandidateID: "a", Combined: 0.7, RawCost: 0.2, RawLatency: time.Second, Order: 0},
		{CandidateID: "b", Combined: 0.7, RawCost: 0.2, RawLatency: time.Second, Order: 1},
		{CandidateID: "c", Combined: 0.7, RawCost: 0.2, RawLatency: time.Second, Order: 2},
	}

	first, _ := Select(scores)
	for i := 0; i < 50; i++ {
		again, _ := Select(scores)
		if again.CandidateID != first.CandidateID {
			t.Fatalf("selection not deterministic: run %d picked %s, first picked %s", i, again.CandidateID, first.CandidateID)
		}
	}
}
