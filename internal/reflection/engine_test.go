package reflection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

type fakeStore struct {
	put        []*models.ReflectionRecord
	related    []*models.ReflectionRecord
	putErr     error
	relatedErr error
}

func (f *fakeStore) Put(ctx context.Context, rec *models.ReflectionRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.put = append(f.put, rec)
	return nil
}

func (f *fakeStore) QueryRelated(ctx context.Context, context_ string, limit int) ([]*models.ReflectionRecord, error) {
	if f.relatedErr != nil {
		return nil, f.relatedErr
	}
	return f.related, nil
}

type captureLogger struct {
	messages []string
}

func (l *captureLogger) Log(format string, args ...interface{}) {
	l.messages = append(l.messages, format)
}

func chainPlan(length int) *models.Plan {
	plan := &models.Plan{ID: "plan-1", Goal: "summarize the report"}
	prev := ""
	for i := 0; i < length; i++ {
		task := &models.Task{
			ID:          string(rune('a' + i)),
			Title:       "step",
			Description: "do the step",
		}
		if prev != "" {
			task.DependsOn = []string{prev}
		}
		prev = task.ID
		plan.Tasks = append(plan.Tasks, task)
	}
	return plan
}

func TestPreRunDeepChainRisk(t *testing.T) {
	engine := New(nil, nil)

	rec := engine.PreRun(context.Background(), chainPlan(6))
	if rec.PlanID != "plan-1" {
		t.Errorf("plan id not carried: %q", rec.PlanID)
	}
	if len(rec.Risks) == 0 {
		t.Fatal("expected a deep-chain risk")
	}

	shallow := engine.PreRun(context.Background(), chainPlan(3))
	if len(shallow.Risks) != 0 {
		t.Errorf("expected no risks for shallow chain, got %v", shallow.Risks)
	}
}

func TestPreRunWideFanOutRisk(t *testing.T) {
	plan := &models.Plan{ID: "p", Goal: "g", Tasks: []*models.Task{
		{ID: "hub", Title: "gather inputs", Description: "d"},
	}}
	for _, id := range []string{"a", "b", "c", "d"} {
		plan.Tasks = append(plan.Tasks, &models.Task{
			ID: id, Title: "work " + id, Description: "d", DependsOn: []string{"hub"},
		})
	}

	rec := New(nil, nil).PreRun(context.Background(), plan)
	if len(rec.Risks) != 1 {
		t.Fatalf("expected exactly the fan-out risk, got %v", rec.Risks)
	}
}

func TestPreRunIncludesPastLessons(t *testing.T) {
	store := &fakeStore{related: []*models.ReflectionRecord{
		{ID: "old", Lessons: []string{"split large documents first"}},
	}}

	rec := New(store, nil).PreRun(context.Background(), chainPlan(2))
	found := false
	for _, risk := range rec.Risks {
		if risk == "past lesson: split large documents first" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected past lesson in risks, got %v", rec.Risks)
	}
}

func TestPreRunStoreErrorNonFatal(t *testing.T) {
	store := &fakeStore{relatedErr: errors.New("store down")}
	logger := &captureLogger{}

	rec := New(store, logger).PreRun(context.Background(), chainPlan(2))
	if rec == nil {
		t.Fatal("expected a record despite store error")
	}
	if len(logger.messages) == 0 {
		t.Error("expected store error to be logged")
	}
}

func TestPostRunClassification(t *testing.T) {
	tests := []struct {
		name    string
		summary *RunSummary
		want    models.OutcomeClass
	}{
		{
			name: "clean run succeeds",
			summary: &RunSummary{Nodes: []NodeOutcome{
				{Status: models.TaskStatusDone},
				{Status: models.TaskStatusDone},
			}},
			want: models.OutcomeSucceeded,
		},
		{
			name: "retries mean caveats",
			summary: &RunSummary{Nodes: []NodeOutcome{
				{Status: models.TaskStatusDone, Retries: 2},
			}},
			want: models.OutcomeSucceededWithCaveats,
		},
		{
			name: "failed run is failed",
			summary: &RunSummary{Failed: true, Nodes: []NodeOutcome{
				{Status: models.TaskStatusFailed, FailureReason: "all candidates failed"},
			}},
			want: models.OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := New(nil, nil).PostRun(context.Background(), nil, tt.summary)
			if rec.Classification != tt.want {
				t.Errorf("classification = %s, want %s", rec.Classification, tt.want)
			}
		})
	}
}

func TestPostRunLessons(t *testing.T) {
	summary := &RunSummary{
		PlanID: "plan-1",
		Goal:   "g",
		Failed: true,
		Nodes: []NodeOutcome{
			{Title: "fetch data", Status: models.TaskStatusFailed, Retries: 3, FailureReason: "timeout"},
			{Title: "summarize", Status: models.TaskStatusBlocked},
		},
	}

	rec := New(nil, nil).PostRun(context.Background(), nil, summary)
	if len(rec.Lessons) < 2 {
		t.Fatalf("expected lessons for failed and blocked tasks, got %v", rec.Lessons)
	}
}

func TestPostRunPersists(t *testing.T) {
	store := &fakeStore{}
	engine := New(store, nil)

	pre := engine.PreRun(context.Background(), chainPlan(2))
	summary := &RunSummary{
		PlanID:  "plan-1",
		Goal:    "summarize the report",
		Elapsed: 3 * time.Second,
		Nodes:   []NodeOutcome{{Status: models.TaskStatusDone}},
	}

	rec := engine.PostRun(context.Background(), pre, summary)
	if len(store.put) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(store.put))
	}
	if store.put[0].ID != rec.ID {
		t.Error("persisted record differs from returned record")
	}
}

func TestPostRunPutErrorNonFatal(t *testing.T) {
	store := &fakeStore{putErr: errors.New("store down")}
	logger := &captureLogger{}

	rec := New(store, logger).PostRun(context.Background(), nil, &RunSummary{
		PlanID: "plan-1",
		Nodes:  []NodeOutcome{{Status: models.TaskStatusDone}},
	})
	if rec == nil || rec.Classification != models.OutcomeSucceeded {
		t.Fatal("expected usable record despite put error")
	}
	if len(logger.messages) == 0 {
		t.Error("expected put error to be logged")
	}
}
