// Package pipeline provides the resilient orchestration of brief generation:
// model selection, bounded retry with backoff, fallback across candidate
// models, and classification of terminal failures.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/jonathan/shorts-planner/internal/llm"
)

// State names a step of the orchestration state machine. Progress observers
// receive every transition; no component prints inline.
type State string

// Orchestration states
const (
	StateSelectingModel State = "selecting_model"
	StateRequesting     State = "requesting"
	StateExtracting     State = "extracting"
	StateFiltering      State = "filtering"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Attempt records why one candidate model was given up on. The full trail is
// carried on ExhaustedError so a failed run names every model tried and the
// classified reason each was rejected.
type Attempt struct {
	Model    string
	Attempts int
	Kind     llm.ErrorKind
	Err      error
}

// ExhaustedError is the terminal failure after every candidate model was
// rejected. It aggregates the last error per model for diagnostics.
type ExhaustedError struct {
	Trail []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Trail) == 0 {
		return "no candidate models to try"
	}
	var sb strings.Builder
	sb.WriteString("all candidate models exhausted:")
	for _, a := range e.Trail {
		sb.WriteString(fmt.Sprintf("\n  %s: %s after %d attempt(s): %v", a.Model, a.Kind, a.Attempts, a.Err))
	}
	return sb.String()
}

// RunError is a terminal failure at a specific stage against a specific
// model: an unclassified generation error or a malformed response. Neither is
// retried; the caller decides whether to re-run the whole pipeline.
type RunError struct {
	State State
	Model string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline failed at %s (model %s): %v", e.State, e.Model, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
