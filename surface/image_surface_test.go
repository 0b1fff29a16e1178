// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"image"
	"image/color"
	"testing"
)

// TestNewImageSurface tests surface creation.
func TestNewImageSurface(t *testing.T) {
	s := NewImageSurface(100, 50)
	if s == nil {
		t.Fatal("NewImageSurface returned nil")
	}
	defer s.Close()

	if s.Width() != 100 {
		t.Errorf("Width() = %d, want 100", s.Width())
	}
	if s.Height() != 50 {
		t.Errorf("Height() = %d, want 50", s.Height())
	}
}

// TestNewImageSurfaceInvalidSize tests handling of invalid dimensions.
func TestNewImageSurfaceInvalidSize(t *testing.T) {
	// Should clamp to minimum of 1x1
	s := NewImageSurface(0, 0)
	defer s.Close()

	if s.Width() != 1 || s.Height() != 1 {
		t.Errorf("expected 1x1, got %dx%d", s.Width(), s.Height())
	}
}

// TestImageSurfaceClear tests the Clear operation.
func TestImageSurfaceClear(t *testing.T) {
	s := NewImageSurface(10, 10)
	defer s.Close()

	s.Clear(color.RGBA{255, 0, 0, 255})

	img := s.Snapshot()
	if img == nil {
		t.Fatal("Snapshot returned nil")
	}
	if c := img.RGBAAt(5, 5); c != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel = %v, want (255, 0, 0, 255)", c)
	}
}

// TestImageSurfaceFillRect tests that FillRect replaces pixels and clips.
func TestImageSurfaceFillRect(t *testing.T) {
	s := NewImageSurface(20, 20)
	defer s.Close()

	s.Clear(color.White)
	s.FillRect(image.Rect(15, -5, 40, 5), color.RGBA{0, 0, 255, 255})

	img := s.Snapshot()
	if c := img.RGBAAt(17, 2); c.B != 255 || c.R != 0 {
		t.Errorf("inside pixel = %v, want blue", c)
	}
	if c := img.RGBAAt(14, 2); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("outside pixel = %v, want white", c)
	}
	if c := img.RGBAAt(17, 5); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel below = %v, want white", c)
	}
}

// TestImageSurfaceDrawImage tests drawing an image onto the surface.
func TestImageSurfaceDrawImage(t *testing.T) {
	s := NewImageSurface(100, 100)
	defer s.Close()
	s.Clear(color.White)

	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := range 10 {
		for x := range 10 {
			src.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	s.DrawImage(src, image.Pt(50, 50), nil)

	img := s.Snapshot()
	if c := img.RGBAAt(55, 55); c.R != 255 || c.G != 0 {
		t.Errorf("drawn pixel = %v, want red", c)
	}
	if c := img.RGBAAt(45, 45); c.R != 255 || c.G != 255 {
		t.Errorf("background pixel = %v, want white", c)
	}
	if c := img.RGBAAt(60, 55); c.G != 255 {
		t.Errorf("pixel right of image = %v, want white", c)
	}
}

func TestImageSurfaceDrawImageClipped(t *testing.T) {
	s := NewImageSurface(10, 10)
	defer s.Close()

	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	src.SetRGBA(15, 15, color.RGBA{0, 255, 0, 255})

	// Negative offsets are valid: the page starts above the viewport.
	s.DrawImage(src, image.Pt(-10, -10), nil)
	if c := s.Snapshot().RGBAAt(5, 5); c.G != 255 {
		t.Errorf("pixel = %v, want green", c)
	}
}

func TestImageSurfaceDrawImageScaled(t *testing.T) {
	s := NewImageSurface(40, 40)
	defer s.Close()

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 1, color.RGBA{0, 0, 255, 255})

	dst := image.Rect(0, 0, 20, 20)
	s.DrawImage(src, image.Point{}, &DrawImageOptions{DstRect: &dst, Alpha: 1})

	img := s.Snapshot()
	if c := img.RGBAAt(15, 15); c.B != 255 {
		t.Errorf("scaled pixel = %v, want blue", c)
	}
	if c := img.RGBAAt(5, 5); c.A != 0 {
		t.Errorf("scaled pixel = %v, want transparent", c)
	}
}

func TestImageSurfaceDrawImageAlpha(t *testing.T) {
	s := NewImageSurface(4, 4)
	defer s.Close()
	s.Clear(color.Black)

	src := image.NewUniform(color.White)
	r := image.Rect(0, 0, 4, 4)
	s.DrawImage(src, image.Point{}, &DrawImageOptions{SrcRect: &r, Alpha: 0.5})

	c := s.Snapshot().RGBAAt(1, 1)
	if c.R < 120 || c.R > 135 {
		t.Errorf("half-alpha pixel = %v, want mid gray", c)
	}
}

func TestImageSurfaceDrawLabel(t *testing.T) {
	s := NewImageSurface(120, 40)
	defer s.Close()
	s.Clear(color.White)

	box := image.Rect(0, 0, 120, 40)
	if err := s.DrawLabel(box, box, "page 3", 16, color.Black); err != nil {
		t.Fatalf("DrawLabel() error = %v", err)
	}

	img := s.Snapshot()
	dark := 0
	for y := range 40 {
		for x := range 120 {
			if img.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("DrawLabel painted nothing")
	}
}

func TestImageSurfaceResize(t *testing.T) {
	s := NewImageSurface(10, 10)
	defer s.Close()

	if err := s.Resize(30, 20); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if s.Width() != 30 || s.Height() != 20 {
		t.Errorf("size = %dx%d, want 30x20", s.Width(), s.Height())
	}
	if b := s.Snapshot().Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("Snapshot bounds = %v", b)
	}
}

// TestImageSurfaceFromImage tests creating a surface from an existing
// image, including one whose bounds do not start at the origin.
func TestImageSurfaceFromImage(t *testing.T) {
	backing := image.NewRGBA(image.Rect(0, 0, 50, 50))
	sub := backing.SubImage(image.Rect(10, 10, 30, 30)).(*image.RGBA)

	s := NewImageSurfaceFromImage(sub)
	defer s.Close()

	if s.Width() != 20 || s.Height() != 20 {
		t.Errorf("size = %dx%d, want 20x20", s.Width(), s.Height())
	}

	s.FillRect(image.Rect(0, 0, 1, 1), color.RGBA{255, 0, 0, 255})
	if c := backing.RGBAAt(10, 10); c.R != 255 {
		t.Errorf("backing pixel = %v, want red", c)
	}
	if c := s.Snapshot().RGBAAt(0, 0); c.R != 255 {
		t.Errorf("snapshot pixel = %v, want red", c)
	}
}

// TestImageSurfaceClose tests that drawing after Close is ignored.
func TestImageSurfaceClose(t *testing.T) {
	s := NewImageSurface(10, 10)

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	s.Clear(color.White)
	s.FillRect(image.Rect(0, 0, 5, 5), color.White)
	if s.Snapshot() != nil {
		t.Error("Snapshot after Close should return nil")
	}
}

func BenchmarkImageSurfaceClear(b *testing.B) {
	s := NewImageSurface(1920, 1080)
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Clear(color.White)
	}
}

func BenchmarkImageSurfaceDrawImage(b *testing.B) {
	s := NewImageSurface(1920, 1080)
	defer s.Close()
	page := image.NewRGBA(image.Rect(0, 0, 816, 1056))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.DrawImage(page, image.Pt(552, -200), nil)
	}
}
