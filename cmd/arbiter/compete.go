package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/dispatch"
	"github.com/arbiterhq/arbiter/pkg/models"
)

var (
	competeCandidatesPath string
	competeDeadline       time.Duration
	competeShowAttempts   bool
)

var competeCmd = &cobra.Command{
	Use:   "compete \"prompt\"",
	Short: "Race the configured candidates on a single prompt",
	Long: `Run one competition: every candidate attempts the prompt
concurrently, responses are scored on quality, latency, and cost, and
the winner is printed along with the full scoreboard.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		candidates, err := resolveCandidates(competeCandidatesPath)
		if err != nil {
			return err
		}
		dispatcher, err := buildDispatcher(cfg)
		if err != nil {
			return err
		}

		req := &models.Request{ID: uuid.New().String(), Prompt: args[0]}
		deadline := competeDeadline
		if deadline <= 0 {
			deadline = cfg.Run.NodeDeadline
		}

		outcome, err := dispatcher.Compete(cmd.Context(), req, candidates, deadline)
		if err != nil {
			var allFailed *dispatch.AllFailedError
			if errors.As(err, &allFailed) {
				printAllFailed(allFailed)
			}
			return err
		}

		printOutcome(outcome, candidates)
		return nil
	},
}

func init() {
	competeCmd.Flags().StringVar(&competeCandidatesPath, "candidates", "", "Path to the candidates manifest")
	competeCmd.Flags().DurationVar(&competeDeadline, "deadline", 0, "Overall competition deadline (default from config)")
	competeCmd.Flags().BoolVar(&competeShowAttempts, "attempts", false, "Show every attempt, including failures")
}

func printOutcome(outcome *models.CompetitionOutcome, candidates []*models.Candidate) {
	fmt.Printf("%s %s  (%s)\n\n", color.GreenString("winner:"), color.New(color.Bold).Sprint(outcome.WinnerID), outcome.Elapsed.Round(time.Millisecond))
	fmt.Println(outcome.Winner.Text)
	fmt.Println()

	fmt.Printf("%-20s %8s %8s %8s %9s\n", "CANDIDATE", "QUALITY", "LATENCY", "COST", "COMBINED")
	for _, cand := range candidates {
		score := outcome.Score(cand.ID)
		if score == nil {
			attempt := outcome.Attempt(cand.ID)
			reason := "no attempt"
			if attempt != nil && attempt.Failure != "" {
				reason = string(attempt.Failure)
			}
			fmt.Printf("%-20s %s\n", cand.ID, color.RedString("failed: %s", reason))
			continue
		}
		line := fmt.Sprintf("%-20s %8.3f %8.3f %8.3f %9.3f", cand.ID, score.Quality, score.Latency, score.Cost, score.Combined)
		if cand.ID == outcome.WinnerID {
			line = color.GreenString(line)
		}
		fmt.Println(line)
	}

	if competeShowAttempts {
		fmt.Println()
		for _, attempt := range outcome.Attempts {
			if attempt.Succeeded() {
				fmt.Printf("%s: %d tokens in %s\n", attempt.CandidateID,
					attempt.Response.TotalTokens(), attempt.Latency.Round(time.Millisecond))
			} else {
				fmt.Printf("%s: %s (%s)\n", attempt.CandidateID, attempt.Failure, attempt.Reason)
			}
		}
	}
}

func printAllFailed(err *dispatch.AllFailedError) {
	fmt.Fprintln(os.Stderr, color.RedString("every candidate failed:"))
	for _, failure := range err.Failures {
		fmt.Fprintf(os.Stderr, "  %s: %s (%s)\n", failure.CandidateID, failure.Kind, failure.Reason)
	}
}
