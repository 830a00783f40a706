package types

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable marks the rule engine as unusable, either because rule
// loading failed at startup or because a rebuild was rejected. NewLibrary and
// Reload wrap their failures in it; callers route to the heuristic path and
// the error itself is never user-visible.
var ErrEngineUnavailable = errors.New("rule engine unavailable")

// EngineError wraps a failure inside the reasoning path: evaluation, query, or
// timeout. It triggers fallback and is logged, never surfaced to the caller.
// Malformed inputs and unparseable reasoner output are not errors at all:
// extraction and result parsing substitute the documented defaults instead.
type EngineError struct {
	Stage   string // "load", "eval", "query"
	Err     error
	Timeout bool
}

func (e *EngineError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("engine %s timed out: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("engine %s: %v", e.Stage, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// RequestError marks a malformed request (missing required identifiers).
// This is the only error class that yields a success:false envelope.
type RequestError struct {
	Missing string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("malformed request: missing %s", e.Missing)
}
