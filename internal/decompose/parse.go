package decompose

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// proposedTask is the JSON structure a backend returns for one subtask.
type proposedTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DependsOn   []string `json:"depends_on"`
}

// ParseResponse parses a backend's JSON task array into tasks.
// Dependencies are declared by title and resolved to generated ids;
// an unknown dependency title is an error.
func ParseResponse(response string) ([]*models.Task, error) {
	jsonStart := strings.Index(response, "[")
	jsonEnd := strings.LastIndex(response, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		preview := response
		if len(preview) > 200 {
			preview = preview[:200] + "... (truncated)"
		}
		return nil, fmt.Errorf("no JSON array found in response (%d chars): %q", len(response), preview)
	}

	var proposed []proposedTask
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &proposed); err != nil {
		return nil, fmt.Errorf("unmarshal task array: %w", err)
	}
	if len(proposed) == 0 {
		return nil, fmt.Errorf("empty task list returned")
	}

	titleToID := make(map[string]string, len(proposed))
	tasks := make([]*models.Task, len(proposed))
	now := time.Now()

	for i, p := range proposed {
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("task %d has no title", i)
		}
		if _, dup := titleToID[p.Title]; dup {
			return nil, fmt.Errorf("duplicate task title %q", p.Title)
		}
		id := uuid.New().String()
		titleToID[p.Title] = id
		tasks[i] = &models.Task{
			ID:          id,
			Title:       p.Title,
			Description: p.Description,
			Status:      models.TaskStatusPending,
			CreatedAt:   now,
		}
	}

	for i, p := range proposed {
		for _, depTitle := range p.DependsOn {
			depID, ok := titleToID[depTitle]
			if !ok {
				return nil, fmt.Errorf("unknown dependency %q for task %q", depTitle, p.Title)
			}
			tasks[i].DependsOn = append(tasks[i].DependsOn, depID)
		}
	}

	return tasks, nil
}
