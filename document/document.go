// Package document defines the backend contract consumed by the viewer:
// open a file, report page count and geometry, rasterize a page.
//
// Backends register themselves with Register and are selected by Open.
// The fitzdoc backend renders PDF, EPUB, XPS and CBZ through MuPDF;
// the imagedoc backend treats a directory of images as a document.
package document

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Size is the base size of a page at the reference scale, in points
// (1/72 inch).
type Size struct {
	Width  float64
	Height float64
}

// Document is an open document. The viewer owns a Document exclusively from
// open until Close; pages are addressed by 0-based index and never handed
// out as separate objects.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageSize returns the base size of page index.
	PageSize(index int) (Size, error)

	// Rasterize renders page index scaled by scaleX and scaleY and rotated
	// clockwise by rotation degrees. The returned image is owned by the
	// caller.
	Rasterize(ctx context.Context, index int, scaleX, scaleY, rotation float64) (*image.RGBA, error)

	// Close releases the document. Close is idempotent.
	Close() error
}

// ConcurrentRasterizer is implemented by documents whose Rasterize may be
// called from several goroutines at once. Callers serialize Rasterize for
// documents that do not implement it or report false.
type ConcurrentRasterizer interface {
	ConcurrentRasterize() bool
}

// IsConcurrent reports whether doc allows concurrent Rasterize calls.
func IsConcurrent(doc Document) bool {
	c, ok := doc.(ConcurrentRasterizer)
	return ok && c.ConcurrentRasterize()
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// Sentinel errors.
var (
	// ErrPageOutOfRange is returned for page indices outside [0, PageCount).
	ErrPageOutOfRange = errors.New("document: page index out of range")

	// ErrClosed is returned by operations on a closed document.
	ErrClosed = errors.New("document: closed")

	// ErrInvalidScale is returned for non-positive or non-finite scales.
	ErrInvalidScale = errors.New("document: invalid scale")

	// ErrNoBackendAvailable is returned when no registered backend accepts
	// a path.
	ErrNoBackendAvailable = errors.New("document: no backend available")
)

// PageError reports a failure on one page.
type PageError struct {
	Index int
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("document: page %d: %v", e.Index, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// CheckIndex returns a *PageError wrapping ErrPageOutOfRange if index is not
// a valid page of a document with count pages.
func CheckIndex(index, count int) error {
	if index < 0 || index >= count {
		return &PageError{Index: index, Err: ErrPageOutOfRange}
	}
	return nil
}
