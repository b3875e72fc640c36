package graph

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// statusColors maps task statuses to DOT fill colors.
var statusColors = map[models.TaskStatus]string{
	models.TaskStatusPending: "white",
	models.TaskStatusReady:   "lightyellow",
	models.TaskStatusRunning: "lightblue",
	models.TaskStatusDone:    "palegreen",
	models.TaskStatusFailed:  "lightcoral",
	models.TaskStatusBlocked: "lightgray",
}

// DOT renders the graph in Graphviz DOT format, one node per task with
// the node's status as its fill color. Edges point dependency → dependent.
func (g *DependencyGraph) DOT(name string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := gographviz.NewGraph()
	if err := out.SetName(strconv.Quote(name)); err != nil {
		return "", fmt.Errorf("set graph name: %w", err)
	}
	if err := out.SetDir(true); err != nil {
		return "", fmt.Errorf("set graph direction: %w", err)
	}

	for _, id := range g.order {
		task := g.nodes[id]
		attrs := map[string]string{
			"label":     strconv.Quote(fmt.Sprintf("%s\\n[%s]", task.Title, task.Status)),
			"style":     strconv.Quote("filled"),
			"fillcolor": strconv.Quote(statusColors[task.Status]),
			"shape":     strconv.Quote("box"),
		}
		if err := out.AddNode(strconv.Quote(name), strconv.Quote(id), attrs); err != nil {
			return "", fmt.Errorf("add node %s: %w", id, err)
		}
	}

	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			if err := out.AddEdge(strconv.Quote(depID), strconv.Quote(id), true, nil); err != nil {
				return "", fmt.Errorf("add edge %s -> %s: %w", depID, id, err)
			}
		}
	}

	return out.String(), nil
}
