package decompose

import (
	"fmt"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// DecompositionQuality summarizes how executable a decomposition looks.
type DecompositionQuality struct {
	// OverallConfidence is the 0.0-1.0 confidence score.
	OverallConfidence float64
	// Warnings lists human-readable concerns.
	Warnings []string
	// TotalTasks is the number of subtasks proposed.
	TotalTasks int
	// EstimatedParallelism is the number of tasks with no dependencies.
	EstimatedParallelism int
}

// ScoreDecomposition analyzes a proposed decomposition and assigns a
// confidence. Callers may gate execution on the result; the decomposer
// itself never does.
func ScoreDecomposition(tasks []*models.Task) DecompositionQuality {
	quality := DecompositionQuality{
		OverallConfidence: 1.0,
		TotalTasks:        len(tasks),
	}

	for _, task := range tasks {
		if len(task.Description) < 20 {
			quality.OverallConfidence -= 0.1
			quality.Warnings = append(quality.Warnings,
				fmt.Sprintf("task %q has a very short description", task.Title))
		}
		if len(task.DependsOn) > 3 {
			quality.OverallConfidence -= 0.1
			quality.Warnings = append(quality.Warnings,
				fmt.Sprintf("task %q has heavy fan-in (%d dependencies)", task.Title, len(task.DependsOn)))
		}
	}

	switch {
	case len(tasks) == 1:
		quality.OverallConfidence -= 0.2
		quality.Warnings = append(quality.Warnings, "decomposition produced a single task; the goal may not need a plan")
	case len(tasks) > 12:
		quality.OverallConfidence -= 0.2
		quality.Warnings = append(quality.Warnings,
			fmt.Sprintf("decomposition produced %d tasks; very fine splits tend to lose context", len(tasks)))
	}

	for _, task := range tasks {
		if len(task.DependsOn) == 0 {
			quality.EstimatedParallelism++
		}
	}
	if quality.EstimatedParallelism == 1 && len(tasks) > 3 {
		quality.OverallConfidence -= 0.1
		quality.Warnings = append(quality.Warnings, "plan is a pure chain; no parallelism available")
	}

	if quality.OverallConfidence < 0 {
		quality.OverallConfidence = 0
	}
	return quality
}
