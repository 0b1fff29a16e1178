// Package fitzdoc renders PDF, EPUB, XPS, CBZ, FB2 and MOBI documents
// through MuPDF (github.com/gen2brain/go-fitz).
//
// Importing the package registers the "fitz" backend with the document
// registry:
//
//	import _ "github.com/gogpu/pageview/document/fitzdoc"
//
// MuPDF contexts are not safe for concurrent rendering, so Rasterize calls
// are serialized by the Document.
package fitzdoc

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/gogpu/pageview/document"
)

// Extensions lists the file extensions the backend accepts.
var Extensions = []string{".pdf", ".epub", ".xps", ".oxps", ".cbz", ".fb2", ".mobi"}

func init() {
	document.Register("fitz", 100, Open, document.HasExtension(Extensions...))
}

// Document is a MuPDF-backed document.
type Document struct {
	mu     sync.Mutex
	doc    *fitz.Document
	sizes  []document.Size
	closed bool
}

var _ document.Document = (*Document)(nil)

// Open opens the document at path.
func Open(path string) (document.Document, error) {
	return New(path)
}

// New opens path and reads the bounds of every page.
func New(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("fitzdoc: %w", err)
	}

	n := doc.NumPage()
	sizes := make([]document.Size, n)
	for i := range n {
		b, err := doc.Bound(i)
		if err != nil {
			_ = doc.Close()
			return nil, &document.PageError{Index: i, Err: err}
		}
		sizes[i] = document.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	}
	return &Document{doc: doc, sizes: sizes}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.sizes) }

// PageSize returns the page size in points.
func (d *Document) PageSize(index int) (document.Size, error) {
	if err := document.CheckIndex(index, len(d.sizes)); err != nil {
		return document.Size{}, err
	}
	return d.sizes[index], nil
}

// Rasterize renders page index. MuPDF renders at a single resolution, so
// anisotropic scales and rotation are applied to the rendered image.
func (d *Document) Rasterize(ctx context.Context, index int, scaleX, scaleY, rotation float64) (*image.RGBA, error) {
	if err := document.CheckIndex(index, len(d.sizes)); err != nil {
		return nil, err
	}
	if !(scaleX > 0) || !(scaleY > 0) || math.IsInf(scaleX, 0) || math.IsInf(scaleY, 0) {
		return nil, document.ErrInvalidScale
	}

	scale := math.Max(scaleX, scaleY)
	img, err := d.render(ctx, index, 72*scale)
	if err != nil {
		return nil, err
	}

	img, err = document.Transform(img, scaleX/scale, scaleY/scale, rotation, draw.ApproxBiLinear)
	if err != nil {
		return nil, &document.PageError{Index: index, Err: err}
	}
	return img, nil
}

func (d *Document) render(ctx context.Context, index int, dpi float64) (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, document.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := d.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, &document.PageError{Index: index, Err: err}
	}
	return img, nil
}

// Close releases the MuPDF document. Close is idempotent.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.doc.Close()
}
