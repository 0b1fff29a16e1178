// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/pageview/internal/label"
)

// ImageSurface is a CPU-based surface that renders to an *image.RGBA.
//
// Example:
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	s.Clear(color.White)
//	s.DrawImage(page, image.Pt(16, 8), nil)
//
//	img := s.Snapshot()
type ImageSurface struct {
	width  int
	height int
	img    *image.RGBA

	// labels draws captions; nil if the font failed to load.
	labels    *label.Renderer
	labelsErr error

	// closed tracks if Close has been called
	closed bool
}

var (
	_ LabelSurface     = (*ImageSurface)(nil)
	_ ResizableSurface = (*ImageSurface)(nil)
)

// NewImageSurface creates a new CPU-based surface with the given dimensions.
func NewImageSurface(width, height int) *ImageSurface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return NewImageSurfaceFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// NewImageSurfaceFromImage creates a surface backed by an existing image.
// The surface will render into the provided image directly.
func NewImageSurfaceFromImage(img *image.RGBA) *ImageSurface {
	bounds := img.Bounds()
	labels, labelsErr := label.Default()

	return &ImageSurface{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		img:    img,
		labels:    labels,
		labelsErr: labelsErr,
	}
}

// Width returns the surface width.
func (s *ImageSurface) Width() int {
	return s.width
}

// Height returns the surface height.
func (s *ImageSurface) Height() int {
	return s.height
}

// Clear fills the entire surface with the given color.
func (s *ImageSurface) Clear(c color.Color) {
	if s.closed {
		return
	}
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillRect replaces the pixels of r, in surface coordinates, with c.
func (s *ImageSurface) FillRect(r image.Rectangle, c color.Color) {
	if s.closed {
		return
	}
	r = s.toImage(r).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawImage composites img over the surface with its top-left corner at at.
func (s *ImageSurface) DrawImage(img image.Image, at image.Point, opts *DrawImageOptions) {
	if s.closed || img == nil {
		return
	}
	if opts == nil {
		opts = DefaultDrawImageOptions()
	}
	if opts.Alpha <= 0 {
		return
	}

	srcBounds := img.Bounds()
	if opts.SrcRect != nil {
		srcBounds = opts.SrcRect.Intersect(srcBounds)
	}
	dstRect := image.Rectangle{Min: at, Max: at.Add(srcBounds.Size())}
	if opts.DstRect != nil {
		dstRect = *opts.DstRect
	}
	dstRect = s.toImage(dstRect)

	var mask image.Image
	if opts.Alpha < 1 {
		mask = image.NewUniform(color.Alpha16{A: uint16(opts.Alpha * 0xffff)})
	}

	if dstRect.Size() == srcBounds.Size() {
		draw.DrawMask(s.img, dstRect, img, srcBounds.Min, mask, image.Point{}, draw.Over)
		return
	}
	opts.Filter.Interpolator().Scale(s.img, dstRect, img, srcBounds, draw.Over, &draw.Options{
		DstMask: mask,
	})
}

// DrawLabel draws text centered in box using the embedded Go Regular font,
// clipped to clip.
func (s *ImageSurface) DrawLabel(box, clip image.Rectangle, text string, size float64, c color.Color) error {
	if s.closed {
		return nil
	}
	if s.labels == nil {
		return s.labelsErr
	}
	return s.labels.Draw(s.img, s.toImage(box), s.toImage(clip), text, size, c)
}

// Resize replaces the backing image with a cleared one of the new size.
func (s *ImageSurface) Resize(width, height int) error {
	if s.closed {
		return nil
	}
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	s.width, s.height = width, height
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Flush is a no-op for CPU surfaces.
func (s *ImageSurface) Flush() error {
	return nil
}

// Snapshot returns a copy of the current surface contents.
func (s *ImageSurface) Snapshot() *image.RGBA {
	if s.closed {
		return nil
	}
	result := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(result, result.Bounds(), s.img, s.img.Bounds().Min, draw.Src)
	return result
}

// Close releases resources.
func (s *ImageSurface) Close() error {
	s.closed = true
	return nil
}

// Image returns the backing image directly (not a copy).
// Modifications to the returned image affect the surface.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// toImage translates surface coordinates into the backing image's.
func (s *ImageSurface) toImage(r image.Rectangle) image.Rectangle {
	return r.Add(s.img.Bounds().Min)
}
