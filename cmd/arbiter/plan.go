package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/decompose"
	"github.com/arbiterhq/arbiter/internal/graph"
)

var (
	planCandidatesPath string
	planOutline        bool
	planDotPath        string
)

var planCmd = &cobra.Command{
	Use:   "plan \"goal\"",
	Short: "Decompose a goal and show the resulting task graph",
	Long: `Decompose a goal into its dependency graph without executing
anything. Prints the proposed subtasks, their dependencies, and a
confidence assessment of the decomposition. With --dot the graph is
also written in Graphviz DOT format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		var strategy decompose.Strategy
		if planOutline {
			strategy = decompose.NewOutlineStrategy()
		} else {
			candidates, err := resolveCandidates(planCandidatesPath)
			if err != nil {
				return err
			}
			dispatcher, err := buildDispatcher(cfg)
			if err != nil {
				return err
			}
			strategy = decompose.NewLLMStrategy(dispatcher, candidates, cfg.Run.NodeDeadline)
		}

		plan, err := decompose.New(strategy).Decompose(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		titles := make(map[string]string, len(plan.Tasks))
		for _, task := range plan.Tasks {
			titles[task.ID] = task.Title
		}

		fmt.Printf("%s %s\n\n", color.CyanString("plan"), plan.Goal)
		for i, task := range plan.Tasks {
			fmt.Printf("%2d. %s\n", i+1, color.New(color.Bold).Sprint(task.Title))
			if task.Description != "" && task.Description != task.Title {
				fmt.Printf("    %s\n", task.Description)
			}
			if len(task.DependsOn) > 0 {
				deps := make([]string, 0, len(task.DependsOn))
				for _, dep := range task.DependsOn {
					deps = append(deps, titles[dep])
				}
				fmt.Printf("    %s %s\n", color.New(color.Faint).Sprint("after:"), strings.Join(deps, ", "))
			}
		}

		quality := decompose.ScoreDecomposition(plan.Tasks)
		fmt.Printf("\n%d tasks, %d independent, confidence %.2f\n",
			quality.TotalTasks, quality.EstimatedParallelism, quality.OverallConfidence)
		for _, warning := range quality.Warnings {
			fmt.Printf("  %s %s\n", color.YellowString("warn:"), warning)
		}

		if planDotPath != "" {
			g := graph.New()
			if err := g.Build(plan.Tasks); err != nil {
				return err
			}
			dot, err := g.DOT("plan_" + time.Now().Format("20060102_150405"))
			if err != nil {
				return fmt.Errorf("rendering dot: %w", err)
			}
			if err := os.WriteFile(planDotPath, []byte(dot), 0644); err != nil {
				return fmt.Errorf("writing dot file: %w", err)
			}
			fmt.Printf("\ngraph written to %s\n", planDotPath)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planCandidatesPath, "candidates", "", "Path to the candidates manifest")
	planCmd.Flags().BoolVar(&planOutline, "outline", false, "Decompose with the local outline parser instead of a competition")
	planCmd.Flags().StringVar(&planDotPath, "dot", "", "Write the task graph in Graphviz DOT format to this file")
}
