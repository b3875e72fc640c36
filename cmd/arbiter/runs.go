package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/archive"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Inspect archived runs",
	Long: `List runs saved to the project archive (.arbiter/runs.db), or show
the per-task breakdown of one run by id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := archive.Open(archive.ProjectDBPath("."))
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			return showRun(cmd, a, args[0])
		}

		runs, err := a.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no archived runs")
			return nil
		}
		for _, run := range runs {
			fmt.Printf("%s  %s  %s  %d tasks  %s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04"),
				runStatusColor(run.Status), run.ID, run.NodeCount,
				(time.Duration(run.ElapsedMs) * time.Millisecond).Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")
}

func showRun(cmd *cobra.Command, a *archive.Archive, id string) error {
	run, err := a.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}

	fmt.Printf("%s  %s\n%s\n\n", runStatusColor(run.Status), run.ID, run.Goal)

	nodes, err := a.NodesForRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		line := fmt.Sprintf("  %-10s %s", node.Status, node.Title)
		if node.WinnerID != "" {
			line += color.New(color.Faint).Sprintf("  (winner %s)", node.WinnerID)
		}
		if node.Error != "" {
			line += color.RedString("  %s", node.Error)
		}
		fmt.Println(line)
	}

	if run.Answer != "" {
		fmt.Printf("\n%s\n", run.Answer)
	}
	return nil
}

func runStatusColor(status string) string {
	switch status {
	case "completed":
		return color.GreenString(status)
	case "failed":
		return color.RedString(status)
	default:
		return status
	}
}
