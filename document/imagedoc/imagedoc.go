// Package imagedoc presents a directory of images, or a single image file,
// as a document with one page per image.
//
// Page geometry comes from the image headers at open time; pixels are
// decoded on every Rasterize call, so the document holds no decoded data.
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
package imagedoc

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // register decoder
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/pageview/document"
)

// DefaultDPI is the resolution at which image pixels map to page points.
// At 72 dpi one pixel is one point, so scale 1 reproduces the image.
const DefaultDPI = 72

// Extensions lists the file extensions the backend accepts.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

func init() {
	document.Register("image", 10, Open, Probe)
}

// Probe accepts directories and files with a supported extension.
func Probe(path string) bool {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return true
	}
	return document.HasExtension(Extensions...)(path)
}

// Document is an image-sequence document.
type Document struct {
	paths  []string
	sizes  []image.Point
	dpi    float64
	interp xdraw.Interpolator
	closed atomic.Bool
}

var (
	_ document.Document             = (*Document)(nil)
	_ document.ConcurrentRasterizer = (*Document)(nil)
)

// Option configures a Document.
type Option func(*Document)

// WithDPI sets the resolution used to convert pixels to points.
func WithDPI(dpi float64) Option {
	return func(d *Document) {
		if dpi > 0 {
			d.dpi = dpi
		}
	}
}

// WithInterpolator sets the resampling kernel (default xdraw.CatmullRom).
func WithInterpolator(interp xdraw.Interpolator) Option {
	return func(d *Document) {
		if interp != nil {
			d.interp = interp
		}
	}
}

// Open opens a directory (images sorted by name) or a single image file.
func Open(path string) (document.Document, error) {
	return New(path)
}

// New is Open with options and a concrete return type.
func New(path string, opts ...Option) (*Document, error) {
	paths, err := collect(path)
	if err != nil {
		return nil, err
	}

	d := &Document{
		paths:  paths,
		sizes:  make([]image.Point, len(paths)),
		dpi:    DefaultDPI,
		interp: xdraw.CatmullRom,
	}
	for _, opt := range opts {
		opt(d)
	}

	for i, p := range paths {
		cfg, err := decodeConfig(p)
		if err != nil {
			return nil, fmt.Errorf("imagedoc: %s: %w", p, err)
		}
		d.sizes[i] = image.Pt(cfg.Width, cfg.Height)
	}
	return d, nil
}

func collect(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("imagedoc: %w", err)
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("imagedoc: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(path, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("imagedoc: %s: no images", path)
	}
	slices.Sort(paths)
	return paths, nil
}

func supported(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

// PageCount returns the number of images.
func (d *Document) PageCount() int { return len(d.paths) }

// PageSize returns the image size in points.
func (d *Document) PageSize(index int) (document.Size, error) {
	if err := document.CheckIndex(index, len(d.paths)); err != nil {
		return document.Size{}, err
	}
	px := d.sizes[index]
	k := 72 / d.dpi
	return document.Size{Width: float64(px.X) * k, Height: float64(px.Y) * k}, nil
}

// Rasterize decodes image index and resamples it. Safe for concurrent use.
func (d *Document) Rasterize(ctx context.Context, index int, scaleX, scaleY, rotation float64) (*image.RGBA, error) {
	if d.closed.Load() {
		return nil, document.ErrClosed
	}
	if err := document.CheckIndex(index, len(d.paths)); err != nil {
		return nil, err
	}

	src, err := d.decode(index)
	if err != nil {
		return nil, &document.PageError{Index: index, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Pixels are converted to points first, then scaled.
	k := 72 / d.dpi
	img, err := document.Transform(src, scaleX*k, scaleY*k, rotation, d.interp)
	if err != nil {
		return nil, &document.PageError{Index: index, Err: err}
	}
	return img, nil
}

func (d *Document) decode(index int) (*image.RGBA, error) {
	f, err := os.Open(d.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

// ConcurrentRasterize reports true: every call decodes independently.
func (d *Document) ConcurrentRasterize() bool { return true }

// Path returns the file backing page index.
func (d *Document) Path(index int) string { return d.paths[index] }

// Close marks the document closed. Close is idempotent.
func (d *Document) Close() error {
	d.closed.Store(true)
	return nil
}
