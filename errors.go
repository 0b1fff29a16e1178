package pageview

import "errors"

// Sentinel errors for the viewer.
var (
	// ErrNoDocument is returned by operations that need an open document.
	ErrNoDocument = errors.New("pageview: no document")

	// ErrClosed is returned by operations on a closed Viewer.
	ErrClosed = errors.New("pageview: viewer closed")
)
