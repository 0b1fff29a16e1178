// Package pageview is the core of a continuous-scroll document viewer.
//
// # Overview
//
// The pages of a document are stacked vertically on one tall canvas,
// separated by a fixed gap and centered horizontally. The host shows a
// viewport onto that canvas and asks the Viewer to paint the rows that
// changed. Only visible pages are rendered; rendering happens on background
// goroutines and rendered pages are kept in a bounded cache.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/pageview"
//	    _ "github.com/gogpu/pageview/document/fitzdoc"
//	)
//
//	v := pageview.New(pageview.WithResolution(96))
//	defer v.Close()
//
//	if err := v.OpenDocument("manual.pdf"); err != nil {
//	    log.Fatal(err)
//	}
//	v.SetViewport(1024, 768)
//
//	s := surface.NewImageSurface(1024, 768)
//	v.RepaintViewport(s)         // placeholders, requests visible pages
//	_ = v.AwaitRender(ctx)       // apply results as they arrive
//	v.RepaintDamaged(s)          // paint the rendered pages
//
// # Event Loop Integration
//
// Viewer is owned by one control goroutine. Interactive hosts select on
// Completions and pass each value to HandleCompletion, then call
// RepaintDamaged from their paint handler. WithRepaintHandler tells the
// host when there is something new to paint.
//
// # Architecture
//
// The library is organized into:
//   - layout: per-page scaled sizes and cumulative offsets
//   - dispatch: prioritized, cancellable rasterization on a worker pool
//   - cache: bounded FIFO or LRU bitmap cache
//   - document: backend contract and registry (fitzdoc, imagedoc)
//   - surface: paint targets
//
// # Coordinate System
//
// Canvas coordinates are pixels with the origin at the top-left corner of
// the first slot. Page i occupies rows [YOffset(i)+spacing,
// YOffset(i+1)). The viewport's top row is ScrollOffset().
//
// # Logging
//
// pageview is silent by default. Call SetLogger to enable structured
// logging via log/slog.
package pageview
