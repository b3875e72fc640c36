package graph

import (
	"strings"
	"testing"

	"github.com/arbiterhq/arbiter/pkg/models"
)

func task(id string, deps ...string) *models.Task {
	return &models.Task{ID: id, Title: "Task " + id, DependsOn: deps, Status: models.TaskStatusPending}
}

func TestBuildRejectsUnknownDependency(t *testing.T) {
	g := New()
	err := g.Build([]*models.Task{task("a", "ghost")})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestBuildRejectsDuplicateID(t *testing.T) {
	g := New()
	err := g.Build([]*models.Task{task("a"), task("a")})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	g := New()
	err := g.Build([]*models.Task{task("a", "b"), task("b", "a")})
	if err != ErrCycleDetected {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestBuildNormalizesZeroValueStatus(t *testing.T) {
	g := New()
	tasks := []*models.Task{
		{ID: "a", Title: "Task a"},
		{ID: "b", Title: "Task b", DependsOn: []string{"a"}},
	}
	if err := g.Build(tasks); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if tasks[0].Status != models.TaskStatusPending {
		t.Errorf("expected zero-value status normalized to pending, got %q", tasks[0].Status)
	}
	ready := g.Ready()
	if len(ready) != 1 || ready[0].ID != "a" {
		t.Fatalf("expected a to be schedulable after Build, got %v", ready)
	}
}

func TestBuildRejectsUnknownStatus(t *testing.T) {
	g := New()
	err := g.Build([]*models.Task{{ID: "a", Status: models.TaskStatus("paused")}})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestHasCycleSelfLoop(t *testing.T) {
	g := New()
	if err := g.Build([]*models.Task{task("a", "a")}); err != ErrCycleDetected {
		t.Fatalf("expected ErrCycleDetected for self loop, got %v", err)
	}
}

func TestTopologicalSort(t *testing.T) {
	g := New()
	tasks := []*models.Task{task("c", "b"), task("b", "a"), task("a")}
	if err := g.Build(tasks); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort failed: %v", err)
	}

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	if !(pos["a"] < pos["b"] && pos["b"] < pos["c"]) {
		t.Errorf("unexpected topological order: %v", order)
	}
}

func TestReadyRespectsDependencies(t *testing.T) {
	g := New()
	tasks := []*models.Task{task("a"), task("b", "a"), task("c", "a")}
	if err := g.Build(tasks); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ready := g.Ready()
	if len(ready) != 1 || ready[0].ID != "a" {
		t.Fatalf("expected only a ready, got %v", ids(ready))
	}

	if !g.Transition("a", models.TaskStatusPending, models.TaskStatusRunning) {
		t.Fatal("expected transition to running")
	}
	if !g.Transition("a", models.TaskStatusRunning, models.TaskStatusDone) {
		t.Fatal("expected transition to done")
	}

	ready = g.Ready()
	if len(ready) != 2 {
		t.Fatalf("expected b and c ready after a done, got %v", ids(ready))
	}
}

func TestTransitionCompareAndSet(t *testing.T) {
	g := New()
	if err := g.Build([]*models.Task{task("a")}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !g.Transition("a", models.TaskStatusPending, models.TaskStatusRunning) {
		t.Fatal("first transition should win")
	}
	// Same transition again must lose: the task is no longer pending.
	if g.Transition("a", models.TaskStatusPending, models.TaskStatusRunning) {
		t.Fatal("second transition must not win")
	}
	if g.Transition("missing", models.TaskStatusPending, models.TaskStatusRunning) {
		t.Fatal("transition on missing task must fail")
	}
}

func TestMarkBlockedDependentsTransitive(t *testing.T) {
	g := New()
	tasks := []*models.Task{task("a"), task("b", "a"), task("c", "b"), task("side")}
	if err := g.Build(tasks); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	g.Transition("a", models.TaskStatusPending, models.TaskStatusRunning)
	g.Transition("a", models.TaskStatusRunning, models.TaskStatusFailed)
	blocked := g.MarkBlockedDependents("a")

	if len(blocked) != 2 {
		t.Fatalf("expected 2 blocked tasks, got %v", blocked)
	}
	for _, id := range []string{"b", "c"} {
		if got := g.Task(id).Status; got != models.TaskStatusBlocked {
			t.Errorf("expected %s blocked, got %s", id, got)
		}
		if reason := g.Task(id).BlockedReason; !strings.Contains(reason, "a") {
			t.Errorf("expected blocked reason to name failed task, got %q", reason)
		}
	}
	if got := g.Task("side").Status; got != models.TaskStatusPending {
		t.Errorf("unrelated task must stay pending, got %s", got)
	}
}

func TestDependentsAndDependencies(t *testing.T) {
	g := New()
	if err := g.Build([]*models.Task{task("a"), task("b", "a")}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if deps := g.Dependencies("b"); len(deps) != 1 || deps[0] != "a" {
		t.Errorf("unexpected dependencies: %v", deps)
	}
	if deps := g.Dependents("a"); len(deps) != 1 || deps[0] != "b" {
		t.Errorf("unexpected dependents: %v", deps)
	}
}

func TestDOTExport(t *testing.T) {
	g := New()
	if err := g.Build([]*models.Task{task("a"), task("b", "a")}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	dot, err := g.DOT("plan")
	if err != nil {
		t.Fatalf("DOT failed: %v", err)
	}
	if !strings.Contains(dot, "digraph") {
		t.Errorf("expected digraph output, got %q", dot)
	}
	if !strings.Contains(dot, `"a"->"b"`) && !strings.Contains(dot, `"a" -> "b"`) {
		t.Errorf("expected edge a -> b in output:\n%s", dot)
	}
}

func ids(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
