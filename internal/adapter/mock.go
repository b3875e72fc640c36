package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// MockScript tells a MockAdapter how to answer one model's calls.
type MockScript struct {
	// Text is the response body. Empty means echo the prompt.
	Text string
	// InputTokens and OutputTokens are the reported usage.
	InputTokens  int
	OutputTokens int
	// Delay is how long the call takes. The call still honors ctx and
	// returns a timeout failure if the deadline fires first.
	Delay time.Duration
	// Fail, when set, makes every call return this failure kind.
	Fail models.FailureKind
}

// MockAdapter returns scripted responses for local runs and tests.
type MockAdapter struct {
	mu      sync.RWMutex
	scripts map[string]MockScript
	calls   map[string]int
}

// NewMockAdapter creates a mock adapter with no scripts. Unscripted
// models echo the prompt immediately.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		scripts: make(map[string]MockScript),
		calls:   make(map[string]int),
	}
}

// Script sets the behavior for a model.
func (a *MockAdapter) Script(model string, s MockScript) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scripts[model] = s
}

// Calls returns how many times a model has been invoked.
func (a *MockAdapter) Calls(model string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.calls[model]
}

// Name returns the adapter family identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Generate returns the scripted response for the model.
func (a *MockAdapter) Generate(ctx context.Context, model string, prompt string) (*models.Response, error) {
	a.mu.Lock()
	a.calls[model]++
	script := a.scripts[model]
	a.mu.Unlock()

	if script.Delay > 0 {
		select {
		case <-time.After(script.Delay):
		case <-ctx.Done():
			return nil, NewCallError(models.FailureTimeout, ctx.Err())
		}
	}

	if script.Fail != "" {
		return nil, NewCallError(script.Fail, fmt.Errorf("scripted %s failure", script.Fail))
	}

	text := script.Text
	if text == "" {
		text = fmt.Sprintf("mock response:\n%s", prompt)
	}

	out := &models.Response{
		Text:         text,
		InputTokens:  script.InputTokens,
		OutputTokens: script.OutputTokens,
	}
	if out.InputTokens == 0 && out.OutputTokens == 0 {
		out.InputTokens = len(prompt) / 4
		out.OutputTokens = len(text) / 4
	}
	return out, nil
}
