package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/archive"
	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/decompose"
	"github.com/arbiterhq/arbiter/internal/experience"
	"github.com/arbiterhq/arbiter/internal/orchestrator"
	"github.com/arbiterhq/arbiter/internal/reflection"
	"github.com/arbiterhq/arbiter/pkg/models"
)

var (
	runCandidatesPath string
	runSimple         bool
	runOutline        bool
	runMaxConcurrency int
	runRetryLimit     int
	runDeadline       time.Duration
	runNoReflect      bool
	runNoArchive      bool
)

var runCmd = &cobra.Command{
	Use:   "run \"goal\"",
	Short: "Decompose a goal into subtasks and run each as a competition",
	Long: `Run a goal end to end. The goal is decomposed into a dependency
graph of subtasks; ready subtasks run as parallel competitions across
the configured candidates, and the final answer is assembled from the
graph's terminal results.

With --simple the goal is treated as a single request and decomposition
is skipped. With --outline decomposition uses the local outline parser
instead of a candidate competition.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		candidates, err := resolveCandidates(runCandidatesPath)
		if err != nil {
			return err
		}
		dispatcher, err := buildDispatcher(cfg)
		if err != nil {
			return err
		}

		opts := orchestrator.Options{
			Candidates:      candidates,
			MaxConcurrency:  cfg.Run.MaxConcurrency,
			RetryLimit:      cfg.Run.RetryLimit,
			Backoff:         cfg.Run.Backoff,
			NodeDeadline:    cfg.Run.NodeDeadline,
			OverallDeadline: cfg.Run.OverallDeadline,
		}
		if runMaxConcurrency > 0 {
			opts.MaxConcurrency = runMaxConcurrency
		}
		if cmd.Flags().Changed("retries") {
			opts.RetryLimit = runRetryLimit
		}
		if runDeadline > 0 {
			opts.OverallDeadline = runDeadline
		}

		runnerOpts := []orchestrator.RunnerOption{
			orchestrator.WithLogger(orchestrator.NewDebugLoggerForDir(".arbiter")),
		}

		var strategy decompose.Strategy
		if runOutline {
			strategy = decompose.NewOutlineStrategy()
		} else {
			strategy = decompose.NewLLMStrategy(dispatcher, candidates, opts.NodeDeadline)
		}
		runnerOpts = append(runnerOpts, orchestrator.WithDecomposer(decompose.New(strategy)))

		if !runNoReflect {
			store, err := openExperienceStore(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: experience store unavailable: %v\n", err)
			} else {
				defer store.Close()
				runnerOpts = append(runnerOpts, orchestrator.WithReflection(reflection.New(store, nil)))
			}
		}
		if !runNoArchive {
			runArchive, err := archive.Open(archive.ProjectDBPath("."))
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: run archive unavailable: %v\n", err)
			} else {
				defer runArchive.Close()
				runnerOpts = append(runnerOpts, orchestrator.WithArchive(runArchive))
			}
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		pause := orchestrator.NewPauseController()
		runnerOpts = append(runnerOpts, orchestrator.WithPauseController(pause))
		if watcher, err := orchestrator.NewSignalWatcher(".arbiter", pause, cancel); err == nil {
			defer watcher.Close()
		}

		emitter := orchestrator.NewEventEmitter(64)
		runnerOpts = append(runnerOpts, orchestrator.WithEmitter(emitter))
		runner := orchestrator.NewRunner(dispatcher, runnerOpts...)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			printEvents(emitter.Events())
		}()

		req := &models.Request{ID: uuid.New().String(), Prompt: args[0], Complex: !runSimple}
		result, runErr := runner.Run(ctx, req, opts)

		emitter.Close()
		wg.Wait()

		if result != nil {
			printResult(result)
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runCandidatesPath, "candidates", "", "Path to the candidates manifest")
	runCmd.Flags().BoolVar(&runSimple, "simple", false, "Skip decomposition and run the goal as one request")
	runCmd.Flags().BoolVar(&runOutline, "outline", false, "Decompose with the local outline parser instead of a competition")
	runCmd.Flags().IntVar(&runMaxConcurrency, "max-concurrency", 0, "Maximum subtasks in flight at once")
	runCmd.Flags().IntVarP(&runRetryLimit, "retries", "r", 0, "Retries per subtask after its first failure")
	runCmd.Flags().DurationVar(&runDeadline, "deadline", 0, "Overall run deadline")
	runCmd.Flags().BoolVar(&runNoReflect, "no-reflect", false, "Skip the pre/post-run reflection passes")
	runCmd.Flags().BoolVar(&runNoArchive, "no-archive", false, "Do not save the run to the project archive")
}

func openExperienceStore(cfg *config.Config) (*experience.SQLiteStore, error) {
	path := cfg.Experience.DBPath
	if path == "" {
		path = experience.DefaultDBPath()
	}
	return experience.Open(path)
}

func printEvents(events <-chan orchestrator.Event) {
	for event := range events {
		switch event.Type {
		case orchestrator.EventPlanStarted:
			fmt.Printf("%s %s\n", color.CyanString("plan"), event.Message)
		case orchestrator.EventTaskStarted:
			fmt.Printf("  %s %s\n", color.BlueString("run "), event.TaskTitle)
		case orchestrator.EventTaskRetrying:
			fmt.Printf("  %s %s (%s)\n", color.YellowString("retry"), event.TaskTitle, event.Message)
		case orchestrator.EventTaskCompleted:
			fmt.Printf("  %s %s %s\n", color.GreenString("done"), event.TaskTitle,
				color.New(color.Faint).Sprintf("(winner %s)", event.WinnerID))
		case orchestrator.EventTaskFailed:
			fmt.Printf("  %s %s: %v\n", color.RedString("fail"), event.TaskTitle, event.Err)
		case orchestrator.EventTaskBlocked:
			fmt.Printf("  %s %s (%s)\n", color.YellowString("block"), event.TaskTitle, event.Message)
		}
	}
}

func printResult(result *orchestrator.PlanResult) {
	fmt.Println()
	if result.Status == orchestrator.RunCompleted {
		fmt.Printf("%s in %s\n\n", color.GreenString("completed"), result.Elapsed.Round(time.Millisecond))
		fmt.Println(result.Answer)
	} else {
		fmt.Printf("%s after %s\n", color.RedString("failed"), result.Elapsed.Round(time.Millisecond))
		for _, node := range result.Failed() {
			fmt.Printf("  %s (%s): %s\n", node.Title, node.Status, node.FailureReason)
		}
	}

	if result.Reflection != nil && len(result.Reflection.Lessons) > 0 {
		fmt.Println()
		fmt.Println(color.New(color.Faint).Sprint("lessons:"))
		for _, lesson := range result.Reflection.Lessons {
			fmt.Printf("  - %s\n", lesson)
		}
	}
}
