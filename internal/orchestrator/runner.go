package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arbiterhq/arbiter/internal/archive"
	"github.com/arbiterhq/arbiter/internal/decompose"
	"github.com/arbiterhq/arbiter/internal/graph"
	"github.com/arbiterhq/arbiter/internal/reflection"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// ErrNoDecomposer is returned when a complex request arrives but no
// decomposer was configured.
var ErrNoDecomposer = errors.New("no decomposer configured for complex request")

// persistTimeout bounds post-run writes to the experience store and
// run archive so a cancelled run context does not lose them.
const persistTimeout = 5 * time.Second

// Competitor runs one fan-out-and-select round. Satisfied by the
// competition dispatcher.
type Competitor interface {
	Compete(ctx context.Context, req *models.Request, candidates []*models.Candidate, deadline time.Duration) (*models.CompetitionOutcome, error)
}

// Runner executes requests. Simple requests go straight through one
// competition; complex ones are decomposed into a plan and driven
// through the scheduling loop.
type Runner struct {
	competitor Competitor
	decomposer *decompose.Decomposer
	reflector  *reflection.Engine
	archive    *archive.Archive
	emitter    *EventEmitter
	logger     *DebugLogger
	pause      *PauseController
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDecomposer sets the decomposer used for complex requests.
func WithDecomposer(d *decompose.Decomposer) RunnerOption {
	return func(r *Runner) { r.decomposer = d }
}

// WithReflection sets the reflection engine wrapped around runs.
func WithReflection(e *reflection.Engine) RunnerOption {
	return func(r *Runner) { r.reflector = e }
}

// WithArchive sets the run archive finished runs are saved to.
func WithArchive(a *archive.Archive) RunnerOption {
	return func(r *Runner) { r.archive = a }
}

// WithEmitter sets the event emitter for run progress.
func WithEmitter(e *EventEmitter) RunnerOption {
	return func(r *Runner) { r.emitter = e }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithPauseController sets the pause controller gating the scheduler.
func WithPauseController(p *PauseController) RunnerOption {
	return func(r *Runner) { r.pause = p }
}

// NewRunner creates a Runner around the given competitor.
func NewRunner(competitor Competitor, opts ...RunnerOption) *Runner {
	r := &Runner{
		competitor: competitor,
		logger:     &DebugLogger{},
		pause:      NewPauseController(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns the runner's event channel, or nil if no emitter was
// configured.
func (r *Runner) Events() <-chan Event {
	if r.emitter == nil {
		return nil
	}
	return r.emitter.Events()
}

// Run executes a request. Requests not flagged complex run a single
// competition; complex ones are decomposed into a plan first. The
// complexity flag is the caller's decision, not the runner's.
func (r *Runner) Run(ctx context.Context, req *models.Request, opts Options) (*PlanResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	if !req.Complex {
		return r.runSimple(ctx, req, opts)
	}

	if r.decomposer == nil {
		return nil, ErrNoDecomposer
	}
	plan, err := r.decomposer.Decompose(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}
	return r.RunPlan(ctx, plan, opts)
}

// runSimple drives one competition and wraps it as a single-node run.
func (r *Runner) runSimple(ctx context.Context, req *models.Request, opts Options) (*PlanResult, error) {
	if opts.OverallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.OverallDeadline)
		defer cancel()
	}

	// Reflection sees a single-request run as a one-node plan.
	var rec *models.ReflectionRecord
	if r.reflector != nil {
		rec = r.reflector.PreRun(ctx, &models.Plan{
			ID:   req.ID,
			Goal: req.Prompt,
			Tasks: []*models.Task{{
				ID:          req.ID,
				Title:       titleFor(req.Prompt),
				Description: req.Prompt,
				Status:      models.TaskStatusPending,
			}},
		})
	}

	started := time.Now()
	outcome, err := r.competitor.Compete(ctx, req, opts.Candidates, opts.NodeDeadline)

	result := &PlanResult{
		PlanID:    req.ID,
		Goal:      req.Prompt,
		StartedAt: started,
		Elapsed:   time.Since(started),
	}
	node := NodeResult{TaskID: req.ID, Title: titleFor(req.Prompt)}
	if err != nil {
		result.Status = RunFailed
		node.Status = models.TaskStatusFailed
		node.FailureReason = err.Error()
		result.Nodes = []NodeResult{node}
		return result, err
	}

	result.Status = RunCompleted
	result.Answer = outcome.Winner.Text
	node.Status = models.TaskStatusDone
	node.WinnerID = outcome.WinnerID
	result.Nodes = []NodeResult{node}

	if r.reflector != nil {
		persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		result.Reflection = r.reflector.PostRun(persistCtx, rec, summarize(result))
	}
	return result, nil
}

// RunPlan validates a plan's topology and executes it to completion.
// Once execution starts the returned PlanResult is non-nil even when
// the run errs, so the caller can inspect whatever terminal states
// were reached; a plan rejected by validation returns a nil result.
func (r *Runner) RunPlan(ctx context.Context, plan *models.Plan, opts Options) (*PlanResult, error) {
	opts = opts.withDefaults()
	if opts.OverallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.OverallDeadline)
		defer cancel()
	}

	g := graph.New()
	if err := g.Build(plan.Tasks); err != nil {
		return nil, err
	}

	var rec *models.ReflectionRecord
	if r.reflector != nil {
		rec = r.reflector.PreRun(ctx, plan)
	}

	started := time.Now()
	r.emit(Event{Type: EventPlanStarted, PlanID: plan.ID, Message: plan.Goal, Timestamp: started})
	r.logger.Log("[run] plan %s started with %d tasks", plan.ID, len(plan.Tasks))

	runErr := r.runLoop(ctx, plan, g, opts)

	result := buildResult(plan, started)
	if runErr != nil {
		result.Status = RunFailed
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if r.reflector != nil {
		result.Reflection = r.reflector.PostRun(persistCtx, rec, summarize(result))
	}
	if r.archive != nil {
		if err := r.saveRun(persistCtx, plan, result); err != nil {
			r.logger.Log("[run] archive run %s: %v", plan.ID, err)
		}
	}

	r.emit(Event{
		Type:      EventPlanDone,
		PlanID:    plan.ID,
		Message:   string(result.Status),
		Err:       runErr,
		Timestamp: time.Now(),
	})
	r.logger.Log("[run] plan %s finished: %s", plan.ID, result.Status)
	return result, runErr
}

func (r *Runner) saveRun(ctx context.Context, plan *models.Plan, result *PlanResult) error {
	return r.archive.SaveRun(ctx, &archive.RunRecord{
		ID:         plan.ID,
		Goal:       plan.Goal,
		Status:     string(result.Status),
		Answer:     result.Answer,
		ElapsedMs:  result.Elapsed.Milliseconds(),
		StartedAt:  result.StartedAt,
		FinishedAt: result.StartedAt.Add(result.Elapsed),
	}, plan)
}

func (r *Runner) emit(event Event) {
	if r.emitter != nil {
		r.emitter.Emit(event)
	}
}

// titleFor derives a short display title from a prompt.
func titleFor(prompt string) string {
	line := prompt
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}
