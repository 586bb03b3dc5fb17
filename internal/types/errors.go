package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrBusy         = errors.New("a scrape is already in progress")
	ErrInvalidQuery = errors.New("invalid chart query")
	ErrNoRows       = errors.New("no chart rows found")
	ErrClosed       = errors.New("browser session closed")
)

// SessionError wraps fatal failures while setting up or reading the browser
// session. These are the only errors a scrape returns.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// NavigationError wraps a failed page load attempt.
type NavigationError struct {
	URL     string
	Attempt int
	Err     error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s (attempt %d): %v", e.URL, e.Attempt, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractError wraps a per-row extraction failure.
type ExtractError struct {
	Row int
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract row %d: %v", e.Row, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the processing pipeline.
type PipelineError struct {
	Stage string
	Entry *Entry
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
