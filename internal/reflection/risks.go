package reflection

import (
	"fmt"
	"strings"

	"github.com/arbiterhq/arbiter/pkg/models"
)

const (
	// deepChainThreshold is the dependency-chain length beyond which a
	// single slow or flaky task can stall the whole run.
	deepChainThreshold = 4
	// wideFanOutThreshold is the dependent count beyond which one
	// failure blocks a large share of the plan.
	wideFanOutThreshold = 3
)

// structuralRisks derives risks from the shape of the plan alone.
func structuralRisks(plan *models.Plan) []string {
	var risks []string

	dependents := make(map[string]int)
	for _, task := range plan.Tasks {
		for _, dep := range task.DependsOn {
			dependents[dep]++
		}
	}

	if depth := chainDepth(plan); depth > deepChainThreshold {
		risks = append(risks, fmt.Sprintf(
			"dependency chain is %d tasks deep; a single failure early in the chain blocks everything after it", depth))
	}

	for _, task := range plan.Tasks {
		if n := dependents[task.ID]; n > wideFanOutThreshold {
			risks = append(risks, fmt.Sprintf(
				"task %q gates %d downstream tasks; its failure blocks most of the plan", task.Title, n))
		}
		if strings.TrimSpace(task.Description) == "" {
			risks = append(risks, fmt.Sprintf(
				"task %q has no description; candidates will compete on the title alone", task.Title))
		}
	}

	return risks
}

// chainDepth returns the length of the longest dependency chain,
// counted in tasks. Assumes the plan is acyclic; validation happens
// before any plan reaches the engine.
func chainDepth(plan *models.Plan) int {
	byID := make(map[string]*models.Task, len(plan.Tasks))
	for _, task := range plan.Tasks {
		byID[task.ID] = task
	}

	memo := make(map[string]int, len(plan.Tasks))
	var depth func(id string) int
	depth = func(id string) int {
		if d, ok := memo[id]; ok {
			return d
		}
		task := byID[id]
		if task == nil {
			return 0
		}
		longest := 0
		for _, dep := range task.DependsOn {
			if d := depth(dep); d > longest {
				longest = d
			}
		}
		memo[id] = longest + 1
		return longest + 1
	}

	max := 0
	for _, task := range plan.Tasks {
		if d := depth(task.ID); d > max {
			max = d
		}
	}
	return max
}

func containsTimeout(reason string) bool {
	return strings.Contains(strings.ToLower(reason), "timeout") ||
		strings.Contains(strings.ToLower(reason), "deadline")
}
