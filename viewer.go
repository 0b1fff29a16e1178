package pageview

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/pageview/cache"
	"github.com/gogpu/pageview/dispatch"
	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/internal/damage"
	"github.com/gogpu/pageview/layout"
)

// Viewer lays out the pages of one document in a vertical strip and paints
// the visible part of it, rendering pages in the background.
//
// Viewer is NOT safe for concurrent use. Create it, feed it completions and
// repaint it from one control goroutine.
type Viewer struct {
	opts options

	doc   document.Document
	path  string
	bases []layout.Size
	table *layout.Table
	epoch uint64

	cache  *cache.Cache[int, Bitmap]
	disp   *dispatch.Dispatcher
	damage *damage.Tracker

	zoom    float64
	scroll  int
	viewW   int
	viewH   int
	current int

	// navPinned keeps the current page set by navigation until the host
	// scrolls.
	navPinned bool

	// pending maps a page to the Seq of the job it waits for.
	pending map[int]uint64
	retries map[int]*retryState
	failed  map[int]error

	closed bool
}

// New creates a Viewer with no document.
//
// New panics if the cache capacity is less than 1 or the spacing is
// negative.
func New(opts ...Option) *Viewer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.spacing < 0 {
		panic(fmt.Sprintf("pageview: negative spacing %d", o.spacing))
	}

	v := &Viewer{
		opts:    o,
		cache:   cache.New[int, Bitmap](o.cacheCapacity, o.cachePolicy),
		disp:    dispatch.New(dispatch.Config{Workers: o.workers}),
		zoom:    1,
		pending: make(map[int]uint64),
		retries: make(map[int]*retryState),
		failed:  make(map[int]error),
	}
	v.table = layout.Build(nil, o.spacing, v.scale())
	return v
}

// OpenDocument opens path and makes it the current document. On failure the
// previous document stays open and nothing changes.
func (v *Viewer) OpenDocument(path string) error {
	if v.closed {
		return ErrClosed
	}

	doc, err := v.opts.opener(path)
	if err != nil {
		return fmt.Errorf("pageview: open %s: %w", path, err)
	}
	bases, err := pageSizes(doc)
	if err != nil {
		_ = doc.Close()
		return fmt.Errorf("pageview: open %s: %w", path, err)
	}

	old := v.doc
	v.doc, v.path, v.bases = doc, path, bases
	v.epoch = v.disp.SetDocument(doc)
	if old != nil {
		if err := old.Close(); err != nil {
			Logger().Warn("pageview: closing previous document", "err", err)
		}
	}

	v.current, v.scroll, v.navPinned = 0, 0, false
	v.relayout()
	Logger().Info("pageview: document opened", "path", path, "pages", len(bases), "epoch", v.epoch)

	v.notifyNavigation()
	v.notifyRepaint()
	return nil
}

func pageSizes(doc document.Document) ([]layout.Size, error) {
	n := doc.PageCount()
	bases := make([]layout.Size, n)
	for i := range n {
		s, err := doc.PageSize(i)
		if err != nil {
			return nil, err
		}
		bases[i] = layout.Size{Width: s.Width, Height: s.Height}
		if err := layout.Validate(bases[i]); err != nil {
			return nil, &document.PageError{Index: i, Err: err}
		}
	}
	return bases, nil
}

// Close stops rendering and closes the document. Close is idempotent.
func (v *Viewer) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	v.resetRetries()
	v.disp.Close()
	v.cache.Clear()
	clear(v.pending)

	if v.doc == nil {
		return nil
	}
	doc := v.doc
	v.doc = nil
	Logger().Info("pageview: document closed", "path", v.path)
	return doc.Close()
}

// relayout rebuilds the layout for the current zoom and drops every bitmap,
// job and retry that belongs to the old one.
func (v *Viewer) relayout() {
	v.table = layout.Build(v.bases, v.opts.spacing, v.scale())
	v.cache.Clear()
	v.disp.CancelAll()
	clear(v.pending)
	v.resetRetries()

	v.damage = damage.New(max(v.table.Height(), 1), damage.DefaultBandHeight)
	v.damage.MarkAll()
	v.scroll = v.clampScroll(v.scroll)
}

// scale is the render scale: zoom times the device resolution factor.
func (v *Viewer) scale() float64 {
	return v.zoom * v.opts.resolution
}

// Document returns the open document, or nil.
func (v *Viewer) Document() document.Document { return v.doc }

// PageCount returns the number of pages of the open document.
func (v *Viewer) PageCount() int { return v.table.Len() }

// Layout returns the current page layout.
func (v *Viewer) Layout() *layout.Table { return v.table }

// Zoom returns the zoom factor.
func (v *Viewer) Zoom() float64 { return v.zoom }

// ZoomIn increases the zoom by one step.
func (v *Viewer) ZoomIn() bool { return v.SetZoom(v.zoom + v.opts.zoomStep) }

// ZoomOut decreases the zoom by one step.
func (v *Viewer) ZoomOut() bool { return v.SetZoom(v.zoom - v.opts.zoomStep) }

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom] and rounded
// to hundredths. The page at the top of the viewport stays in view. It
// reports whether the zoom changed.
func (v *Viewer) SetZoom(z float64) bool {
	if math.IsNaN(z) {
		return false
	}
	z = math.Round(min(max(z, MinZoom), MaxZoom)*100) / 100
	if z == v.zoom {
		return false
	}

	anchor, frac := v.scrollAnchor()
	v.zoom = z
	v.relayout()
	if anchor >= 0 {
		top := v.table.YOffset(anchor)
		slot := v.table.YOffset(anchor+1) - top
		v.scroll = v.clampScroll(top + int(math.Round(frac*float64(slot))))
	}
	Logger().Info("pageview: zoom", "zoom", z, "scale", v.scale())

	v.notifyNavigation()
	v.notifyRepaint()
	return true
}

// scrollAnchor returns the page at the top of the viewport and how far into
// its slot the viewport starts, as a fraction.
func (v *Viewer) scrollAnchor() (int, float64) {
	if v.table.Len() == 0 {
		return -1, 0
	}
	if v.navPinned {
		return v.current, 0
	}
	i := v.table.PageAt(v.scroll)
	top := v.table.YOffset(i)
	slot := v.table.YOffset(i+1) - top
	if slot <= 0 {
		return i, 0
	}
	return i, float64(v.scroll-top) / float64(slot)
}

// NextPage moves to the next page, staying on the last one.
func (v *Viewer) NextPage() {
	if n := v.table.Len(); n > 0 {
		v.goTo(min(v.current+1, n-1))
	}
}

// PreviousPage moves to the previous page, staying on the first one.
func (v *Viewer) PreviousPage() {
	if v.table.Len() > 0 {
		v.goTo(max(v.current-1, 0))
	}
}

// GoToPage moves to page n (0-based). Out-of-range n is ignored and
// GoToPage returns false.
func (v *Viewer) GoToPage(n int) bool {
	if n < 0 || n >= v.table.Len() {
		return false
	}
	v.goTo(n)
	return true
}

func (v *Viewer) goTo(i int) {
	v.current = i
	v.navPinned = true
	v.setScroll(v.table.YOffset(i))
	v.notifyNavigation()
}

// CurrentPage returns the 0-based current page.
func (v *Viewer) CurrentPage() int { return v.current }

// CurrentPageInfo returns the current page, page count and zoom.
func (v *Viewer) CurrentPageInfo() NavInfo {
	return NavInfo{Index: v.current, Total: v.table.Len(), Zoom: v.zoom}
}

// CanvasSize returns the size of the whole page strip: the widest page by
// the height of all pages and gaps.
func (v *Viewer) CanvasSize() image.Point {
	return image.Pt(v.table.Width(), v.table.Height())
}

// SetViewport sets the size of the visible area in pixels.
func (v *Viewer) SetViewport(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == v.viewW && height == v.viewH {
		return
	}
	v.viewW, v.viewH = width, height
	v.scroll = v.clampScroll(v.scroll)
	v.markViewport()
	v.notifyRepaint()
}

// Viewport returns the visible area in canvas coordinates.
func (v *Viewer) Viewport() image.Rectangle {
	return image.Rect(0, v.scroll, v.viewW, v.scroll+v.viewH)
}

// ScrollOffset returns the canvas Y coordinate at the top of the viewport.
func (v *Viewer) ScrollOffset() int { return v.scroll }

// ScrollTo scrolls so that canvas row y is at the top of the viewport.
// The current page then follows the viewport midpoint.
func (v *Viewer) ScrollTo(y int) {
	v.navPinned = false
	v.setScroll(y)
	v.updateCurrent()
}

// ScrollBy scrolls by dy pixels.
func (v *Viewer) ScrollBy(dy int) { v.ScrollTo(v.scroll + dy) }

func (v *Viewer) setScroll(y int) {
	y = v.clampScroll(y)
	if y == v.scroll {
		return
	}
	v.scroll = y
	v.markViewport()
	v.notifyRepaint()
}

func (v *Viewer) clampScroll(y int) int {
	return min(max(y, 0), max(v.table.Height()-v.viewH, 0))
}

// updateCurrent recomputes the current page from the viewport midpoint and
// reports navigation if it changed.
func (v *Viewer) updateCurrent() {
	if v.navPinned || v.table.Len() == 0 {
		return
	}
	c := v.table.CurrentPage(v.scroll, v.scroll+v.viewH)
	if c != v.current {
		v.current = c
		v.notifyNavigation()
	}
}

// PageState returns the render state of page index.
func (v *Viewer) PageState(index int) PageState {
	switch {
	case v.cache.Contains(index):
		return PageCached
	case v.isPending(index):
		return PagePending
	case v.failed[index] != nil:
		return PageFailed
	default:
		return PageUnrendered
	}
}

// PageError returns the last render error of page index, or nil.
func (v *Viewer) PageError(index int) error {
	if rs := v.retries[index]; rs != nil {
		return rs.err
	}
	return nil
}

// CacheStats returns the bitmap cache statistics.
func (v *Viewer) CacheStats() cache.Stats { return v.cache.Stats() }

// RenderStats returns the dispatcher counters.
func (v *Viewer) RenderStats() dispatch.Stats { return v.disp.Stats() }

func (v *Viewer) isPending(index int) bool {
	_, ok := v.pending[index]
	return ok
}

// pageSpan returns the canvas rows of page index including its gap.
func (v *Viewer) pageSpan(index int) (top, bottom int) {
	return v.table.YOffset(index), v.table.YOffset(index + 1)
}

func (v *Viewer) markPage(index int) {
	if index < 0 || index >= v.table.Len() {
		return
	}
	v.damage.Mark(v.pageSpan(index))
}

func (v *Viewer) markViewport() {
	v.damage.Mark(v.scroll, v.scroll+v.viewH)
}

func (v *Viewer) notifyNavigation() {
	if v.opts.onNavigate != nil {
		v.opts.onNavigate(v.CurrentPageInfo())
	}
}

func (v *Viewer) notifyRepaint() {
	if v.opts.onRepaint != nil {
		v.opts.onRepaint()
	}
}
