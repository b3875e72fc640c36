package models

import (
	"fmt"
	"strings"
)

// Request is a single unit of work routed through a competition.
// Payloads are opaque to the core; adapters decide how to present them.
type Request struct {
	// ID is the unique identifier for this request.
	ID string `json:"id"`
	// Prompt is the request payload handed to each adapter.
	Prompt string `json:"prompt"`
	// Complex indicates the external classifier flagged this request
	// for decomposition. The core never decides complexity itself.
	Complex bool `json:"complex,omitempty"`
	// Metadata carries opaque structured data for adapters and scorers.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks the request is executable.
func (r *Request) Validate() error {
	if r.ID == "" {
		return errEmptyField("request id")
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return errEmptyField("request prompt")
	}
	return nil
}

func errEmptyField(name string) error {
	return fmt.Errorf("%s must not be empty", name)
}

func errNegativeField(name string) error {
	return fmt.Errorf("%s must not be negative", name)
}
