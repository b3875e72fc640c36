package models

import "testing"

func TestPlanSinks(t *testing.T) {
	plan := &Plan{
		ID:   "plan-1",
		Goal: "test goal",
		Tasks: []*Task{
			{ID: "a", Title: "A"},
			{ID: "b", Title: "B", DependsOn: []string{"a"}},
			{ID: "c", Title: "C", DependsOn: []string{"a"}},
			{ID: "d", Title: "D", DependsOn: []string{"b", "c"}},
		},
	}

	sinks := plan.Sinks()
	if len(sinks) != 1 {
		t.Fatalf("expected 1 sink, got %d", len(sinks))
	}
	if sinks[0].ID != "d" {
		t.Errorf("expected sink d, got %s", sinks[0].ID)
	}
}

func TestPlanSinksDisconnectedBranch(t *testing.T) {
	plan := &Plan{
		Tasks: []*Task{
			{ID: "a"},
			{ID: "b", DependsOn: []string{"a"}},
			{ID: "side"},
		},
	}

	sinks := plan.Sinks()
	if len(sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(sinks))
	}
}

func TestPlanTaskLookup(t *testing.T) {
	plan := &Plan{Tasks: []*Task{{ID: "x", Title: "X"}}}

	if got := plan.Task("x"); got == nil || got.Title != "X" {
		t.Errorf("expected to find task x, got %v", got)
	}
	if got := plan.Task("missing"); got != nil {
		t.Errorf("expected nil for missing task, got %v", got)
	}
}

func TestPlanTerminal(t *testing.T) {
	plan := &Plan{
		Tasks: []*Task{
			{ID: "a", Status: TaskStatusDone},
			{ID: "b", Status: TaskStatusRunning},
		},
	}
	if plan.Terminal() {
		t.Error("expected plan with running task to not be terminal")
	}

	plan.Tasks[1].Status = TaskStatusBlocked
	if !plan.Terminal() {
		t.Error("expected plan with all terminal tasks to be terminal")
	}
}
