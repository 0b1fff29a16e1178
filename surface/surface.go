// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"
)

// Surface is the rendering target of the viewer.
//
// Coordinates are surface pixels with the origin at the top-left corner.
// Drawing outside the surface bounds is clipped.
//
// Surfaces are NOT thread-safe. Each surface should be used from a single
// goroutine, or external synchronization must be used.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Clear fills the entire surface with the given color.
	Clear(c color.Color)

	// FillRect replaces the pixels of r with c.
	FillRect(r image.Rectangle, c color.Color)

	// DrawImage draws an image with its top-left corner at at.
	// If opts is nil, default options are used.
	DrawImage(img image.Image, at image.Point, opts *DrawImageOptions)

	// Flush ensures all pending drawing operations are complete.
	// For CPU surfaces, this is typically a no-op.
	Flush() error

	// Snapshot returns the current surface contents as an RGBA image.
	// The returned image is a copy; modifications to it do not affect the surface.
	Snapshot() *image.RGBA

	// Close releases all resources associated with the surface.
	// After Close, the surface must not be used.
	// Close is idempotent; multiple calls are safe.
	Close() error
}

// LabelSurface is an optional interface for surfaces that can draw text.
type LabelSurface interface {
	Surface

	// DrawLabel draws text of the given pixel size centered in box, writing
	// only pixels inside clip.
	DrawLabel(box, clip image.Rectangle, text string, size float64, c color.Color) error
}

// ResizableSurface is an optional interface for surfaces that support resizing.
type ResizableSurface interface {
	Surface

	// Resize changes the surface dimensions.
	// Existing content may be discarded or preserved depending on implementation.
	Resize(width, height int) error
}
