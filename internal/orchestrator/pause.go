package orchestrator

import (
	"context"
	"errors"
	"sync"
)

// ErrRunStopped is returned when a run is stopped by a signal while
// waiting to schedule work.
var ErrRunStopped = errors.New("run stopped")

// PauseController gates node scheduling. While paused, no new
// competitions start; in-flight ones are left to finish.
type PauseController struct {
	paused  bool
	stopped bool
	mu      sync.RWMutex
	cond    *sync.Cond
}

// NewPauseController creates a PauseController in the running state.
func NewPauseController() *PauseController {
	p := &PauseController{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Pause stops new nodes from being scheduled.
func (p *PauseController) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume re-enables scheduling after a pause.
func (p *PauseController) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		p.cond.Broadcast()
	}
}

// Stop signals a stop. This unblocks any WaitIfPaused calls.
func (p *PauseController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		p.stopped = true
		p.cond.Broadcast()
	}
}

// IsPaused returns whether scheduling is currently paused.
func (p *PauseController) IsPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

// IsStopped returns whether the controller has been stopped.
func (p *PauseController) IsStopped() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopped
}

// WaitIfPaused blocks until the run is unpaused or stopped. Returns
// the context error on cancellation and ErrRunStopped on stop.
func (p *PauseController) WaitIfPaused(ctx context.Context) error {
	p.mu.Lock()
	if p.paused && !p.stopped {
		// One goroutine wakes the condition if the context is
		// cancelled; spurious wakeups re-enter the wait loop.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				p.mu.Lock()
				p.cond.Broadcast()
				p.mu.Unlock()
			case <-done:
			}
		}()

		for p.paused && !p.stopped {
			p.cond.Wait()
			if ctx.Err() != nil {
				close(done)
				p.mu.Unlock()
				return ctx.Err()
			}
		}
		close(done)
	}
	if p.stopped {
		p.mu.Unlock()
		return ErrRunStopped
	}
	p.mu.Unlock()
	return nil
}
