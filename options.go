package pageview

import (
	"image/color"

	"github.com/gogpu/pageview/cache"
	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/layout"
)

// Defaults.
const (
	DefaultCacheCapacity = 9
	DefaultZoomStep      = 0.1
	MinZoomStep          = 0.01
	DefaultWorkers       = 2
	DefaultLabelSize     = 16

	MinZoom = 0.1
	MaxZoom = 10.0
)

// Option configures a Viewer during creation.
//
// Example:
//
//	v := pageview.New(
//	    pageview.WithCacheCapacity(16),
//	    pageview.WithResolution(144),
//	    pageview.WithRepaintHandler(window.Invalidate),
//	)
type Option func(*options)

// options holds optional configuration for Viewer creation.
type options struct {
	cacheCapacity   int
	cachePolicy     cache.Policy
	spacing         int
	resolution      float64
	zoomStep        float64
	workers         int
	opener          document.Opener
	retry           RetryPolicy
	clock           Clock
	onNavigate      func(NavInfo)
	onRepaint       func()
	background      color.Color
	pageBackground  color.Color
	cancelOffscreen bool
	labelSize       float64
}

// defaultOptions returns the default viewer options.
func defaultOptions() options {
	return options{
		cacheCapacity:   DefaultCacheCapacity,
		cachePolicy:     cache.FIFO,
		spacing:         layout.DefaultSpacing,
		resolution:      1,
		zoomStep:        DefaultZoomStep,
		workers:         DefaultWorkers,
		opener:          document.Open,
		retry:           DefaultRetryPolicy(),
		clock:           SystemClock,
		background:      color.RGBA{0x80, 0x80, 0x80, 0xff},
		pageBackground:  color.White,
		cancelOffscreen: true,
		labelSize:       DefaultLabelSize,
	}
}

// WithCacheCapacity sets how many rendered pages are kept.
// New panics if n is less than 1.
func WithCacheCapacity(n int) Option {
	return func(o *options) {
		o.cacheCapacity = n
	}
}

// WithCachePolicy selects FIFO (default) or LRU eviction.
func WithCachePolicy(p cache.Policy) Option {
	return func(o *options) {
		o.cachePolicy = p
	}
}

// WithSpacing sets the vertical gap between pages in pixels.
func WithSpacing(px int) Option {
	return func(o *options) {
		o.spacing = px
	}
}

// WithResolution sets the device resolution in dpi. Page sizes are in
// points, so the device factor is dpi/72.
func WithResolution(dpi float64) Option {
	return func(o *options) {
		if dpi > 0 {
			o.resolution = dpi / 72
		}
	}
}

// WithZoomStep sets the increment used by ZoomIn and ZoomOut. Zoom is
// rounded to hundredths, so steps below MinZoomStep are ignored.
func WithZoomStep(step float64) Option {
	return func(o *options) {
		if step >= MinZoomStep {
			o.zoomStep = step
		}
	}
}

// WithWorkers sets the number of rasterization goroutines.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithOpener replaces the backend registry lookup used by OpenDocument.
func WithOpener(open document.Opener) Option {
	return func(o *options) {
		if open != nil {
			o.opener = open
		}
	}
}

// WithRetryPolicy sets how failed renders are retried.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		o.retry = p
	}
}

// WithClock sets the clock used for retry scheduling.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithNavigationHandler registers fn to receive page/zoom updates.
// fn runs on the goroutine that triggered the update.
func WithNavigationHandler(fn func(NavInfo)) Option {
	return func(o *options) {
		o.onNavigate = fn
	}
}

// WithRepaintHandler registers fn to be called whenever damage is added.
// fn may run on a timer goroutine and must not call back into the Viewer;
// it should schedule RepaintDamaged on the control goroutine.
func WithRepaintHandler(fn func()) Option {
	return func(o *options) {
		o.onRepaint = fn
	}
}

// WithBackground sets the colour painted between and around pages.
// Use color.Transparent for a transparent canvas.
func WithBackground(c color.Color) Option {
	return func(o *options) {
		if c != nil {
			o.background = c
		}
	}
}

// WithPageBackground sets the colour painted under each page.
func WithPageBackground(c color.Color) Option {
	return func(o *options) {
		if c != nil {
			o.pageBackground = c
		}
	}
}

// WithCancelOffscreen controls whether jobs for pages that scrolled out of
// view are cancelled after each repaint. Enabled by default.
func WithCancelOffscreen(enabled bool) Option {
	return func(o *options) {
		o.cancelOffscreen = enabled
	}
}

// WithLabelSize sets the pixel size of placeholder captions.
func WithLabelSize(px float64) Option {
	return func(o *options) {
		if px > 0 {
			o.labelSize = px
		}
	}
}
