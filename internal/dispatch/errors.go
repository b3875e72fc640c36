package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// ErrNoCandidates indicates compete was called with an empty candidate list.
var ErrNoCandidates = errors.New("no candidates configured")

// Failure records why one candidate's attempt failed.
type Failure struct {
	CandidateID string
	Kind        models.FailureKind
	Reason      string
}

// AllFailedError indicates every candidate in a competition failed.
// It carries each candidate's failure reason; this is the only fatal
// path through the dispatcher.
type AllFailedError struct {
	RequestID string
	Failures  []Failure
}

func (e *AllFailedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %s (%s)", f.CandidateID, f.Kind, f.Reason)
	}
	return fmt.Sprintf("all %d candidates failed for request %s: %s",
		len(e.Failures), e.RequestID, strings.Join(parts, "; "))
}
