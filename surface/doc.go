// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the paint target the viewer composites into.
//
// A Surface is a viewport-sized canvas. The viewer clears damaged bands,
// fills page backgrounds and blits cached page bitmaps onto it; the host
// then presents the surface however it likes (a window, a PNG, a test
// assertion). Surfaces that also implement LabelSurface receive the
// "page N" captions painted on placeholders and error tiles.
//
// # Surface Types
//
//   - ImageSurface: CPU surface backed by *image.RGBA, compositing with
//     golang.org/x/image/draw
//
// # Usage
//
//	s := surface.NewImageSurface(800, 600)
//	defer s.Close()
//
//	s.Clear(color.Gray{0x80})
//	s.FillRect(image.Rect(100, 8, 700, 808), color.White)
//	s.DrawImage(page, image.Pt(100, 8), nil)
//
//	img := s.Snapshot()
package surface
