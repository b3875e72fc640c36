// Package orchestrator drives plans through the competition dispatcher,
// scheduling ready tasks onto a bounded worker pool until every node
// reaches a terminal status.
package orchestrator

import (
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

const (
	// DefaultMaxConcurrency bounds in-flight competitions per run.
	DefaultMaxConcurrency = 3
	// DefaultRetryLimit is how many times a failed node is retried
	// before it is marked failed.
	DefaultRetryLimit = 2
	// DefaultBackoff is the base delay before the first retry. Each
	// further retry doubles it.
	DefaultBackoff = 500 * time.Millisecond
	// DefaultPollInterval is the idle delay between ready scans when
	// nothing has completed.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultNodeDeadline bounds one competition within a plan run.
	DefaultNodeDeadline = 60 * time.Second
)

// Options configures a single run.
type Options struct {
	// Candidates are the backends competing for every task. Scoring
	// weights ride with the competitor itself, not per run.
	Candidates []*models.Candidate
	// MaxConcurrency caps simultaneously running nodes.
	MaxConcurrency int
	// RetryLimit is the number of retries per node after its first
	// attempt fails.
	RetryLimit int
	// Backoff is the base retry delay, doubled per retry.
	Backoff time.Duration
	// NodeDeadline bounds each node's competition.
	NodeDeadline time.Duration
	// OverallDeadline bounds the whole run. Zero means no bound.
	OverallDeadline time.Duration
	// PollInterval is the scheduler's idle wait between scans.
	PollInterval time.Duration
}

// withDefaults returns a copy with zero fields filled in.
func (o Options) withDefaults() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = DefaultMaxConcurrency
	}
	// A negative RetryLimit disables retries; zero means default.
	if o.RetryLimit == 0 {
		o.RetryLimit = DefaultRetryLimit
	} else if o.RetryLimit < 0 {
		o.RetryLimit = 0
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.NodeDeadline <= 0 {
		o.NodeDeadline = DefaultNodeDeadline
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}
