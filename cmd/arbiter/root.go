package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Competitive LLM routing and task orchestration",
	Long: `Arbiter races multiple LLM backends against each other for every
request and keeps the best response, scored on quality, latency, and
cost. Complex goals are decomposed into a dependency graph of subtasks,
each executed as its own competition, with lessons from past runs
feeding risk analysis for new ones.

Candidates are declared in a YAML manifest (.arbiter/candidates.yaml or
~/.config/arbiter/candidates.yaml); each entry names the adapter family
(anthropic, openai, google, mock), the model, its per-token cost, and a
per-call timeout.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(competeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
