package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// CallError wraps a backend error with its failure classification.
type CallError struct {
	Kind models.FailureKind
	Err  error
}

func (e *CallError) Error() string {
	if e == nil {
		return "adapter call error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *CallError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewCallError creates a classified call error.
func NewCallError(kind models.FailureKind, err error) *CallError {
	return &CallError{Kind: kind, Err: err}
}

// Classify maps an adapter error to its failure kind.
// Unclassified errors are treated as the backend being unavailable.
func Classify(err error) models.FailureKind {
	if err == nil {
		return ""
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.FailureTimeout
	}
	return models.FailureUnavailable
}

// kindForStatus maps an HTTP status code from a backend to a failure kind.
func kindForStatus(status int) models.FailureKind {
	switch {
	case status == 401 || status == 403:
		return models.FailureAuth
	case status == 429:
		return models.FailureRateLimited
	case status == 408 || status == 504:
		return models.FailureTimeout
	default:
		return models.FailureUnavailable
	}
}
