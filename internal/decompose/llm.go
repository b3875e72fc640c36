package decompose

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// Competitor runs one fan-out-and-select round. Satisfied by the
// competition dispatcher.
type Competitor interface {
	Compete(ctx context.Context, req *models.Request, candidates []*models.Candidate, deadline time.Duration) (*models.CompetitionOutcome, error)
}

// LLMStrategy asks the candidate backends themselves, through a
// competition, to propose the breakdown. The winning response must be
// a JSON task array.
type LLMStrategy struct {
	competitor Competitor
	candidates []*models.Candidate
	deadline   time.Duration
}

// NewLLMStrategy creates a competition-backed decomposition strategy.
func NewLLMStrategy(competitor Competitor, candidates []*models.Candidate, deadline time.Duration) *LLMStrategy {
	return &LLMStrategy{competitor: competitor, candidates: candidates, deadline: deadline}
}

// Propose runs a decomposition competition and parses the winner.
func (s *LLMStrategy) Propose(ctx context.Context, goal string) ([]*models.Task, error) {
	req := &models.Request{
		ID:     uuid.New().String(),
		Prompt: fmt.Sprintf(decompositionPrompt, goal),
	}

	outcome, err := s.competitor.Compete(ctx, req, s.candidates, s.deadline)
	if err != nil {
		return nil, fmt.Errorf("decomposition competition: %w", err)
	}

	tasks, err := ParseResponse(outcome.Winner.Text)
	if err != nil {
		return nil, fmt.Errorf("parse decomposition response: %w", err)
	}
	return tasks, nil
}
