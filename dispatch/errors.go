package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors carried by completions.
var (
	// ErrNoDocument is returned for requests made while no document is set.
	ErrNoDocument = errors.New("dispatch: no document")

	// ErrCanceled is returned for jobs cancelled before their result was
	// accepted: superseded while running, outside the visible range, or
	// made obsolete by a document change or Close.
	ErrCanceled = errors.New("dispatch: render canceled")
)

// RenderError wraps a backend failure for one page.
type RenderError struct {
	Index int
	Scale float64
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("dispatch: render page %d at scale %g: %v", e.Index, e.Scale, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
