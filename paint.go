package pageview

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/pageview/dispatch"
	"github.com/gogpu/pageview/surface"
)

var (
	placeholderText = color.RGBA{0x9e, 0x9e, 0x9e, 0xff}
	errorTile       = color.RGBA{0xfb, 0xe9, 0xe7, 0xff}
	errorText       = color.RGBA{0xb7, 0x1c, 0x1c, 0xff}
)

// Repaint paints canvas rows [top, bottom) onto s. The top row of s shows
// canvas row ScrollOffset(). Rows outside the viewport are ignored.
//
// Cached pages are drawn from the cache. Missing pages are drawn as
// placeholders and requested from the renderer unless a job is already in
// flight or a retry is not yet due. Failed pages are drawn as error tiles.
func (v *Viewer) Repaint(s surface.Surface, top, bottom int) {
	if v.closed {
		return
	}
	top = max(top, v.scroll)
	bottom = min(bottom, v.scroll+s.Height())
	if top >= bottom {
		return
	}

	band := image.Rect(0, top-v.scroll, s.Width(), bottom-v.scroll)
	s.FillRect(band, v.opts.background)

	first, last, ok := v.table.PageRange(top, bottom)
	if !ok {
		return
	}

	hit := false
	for i := first; i <= last; i++ {
		page := v.table.PageRect(i, s.Width()).Sub(image.Pt(0, v.scroll))
		clip := page.Intersect(band)
		if clip.Empty() {
			continue
		}

		if bm, ok := v.cache.Lookup(i); ok && bm.Scale == v.scale() {
			v.paintBitmap(s, page, clip, bm)
			hit = true
			continue
		}

		if err := v.failed[i]; err != nil {
			s.FillRect(clip, errorTile)
			v.drawLabel(s, page, clip, fmt.Sprintf("page %d: render failed", i+1), errorText)
			continue
		}

		s.FillRect(clip, v.opts.pageBackground)
		v.drawLabel(s, page, clip, fmt.Sprintf("page %d", i+1), placeholderText)
		v.request(i)
	}

	if hit {
		v.updateCurrent()
	}
	if v.opts.cancelOffscreen {
		if vf, vl, ok := v.table.PageRange(v.scroll, v.scroll+max(v.viewH, s.Height())); ok {
			v.disp.CancelOutside(vf, vl)
		}
	}
}

// paintBitmap draws bm horizontally centered in page, limited to clip.
func (v *Viewer) paintBitmap(s surface.Surface, page, clip image.Rectangle, bm Bitmap) {
	s.FillRect(clip, v.opts.pageBackground)

	size := bm.Image.Bounds().Size()
	at := image.Pt(page.Min.X+(page.Dx()-size.X)/2, page.Min.Y)
	dst := image.Rectangle{Min: at, Max: at.Add(size)}.Intersect(clip)
	if dst.Empty() {
		return
	}
	src := dst.Sub(at).Add(bm.Image.Bounds().Min)
	s.DrawImage(bm.Image, dst.Min, &surface.DrawImageOptions{SrcRect: &src, Alpha: 1})
}

// drawLabel centers text in page and paints only the part inside clip.
func (v *Viewer) drawLabel(s surface.Surface, page, clip image.Rectangle, text string, c color.Color) {
	ls, ok := s.(surface.LabelSurface)
	if !ok {
		return
	}
	if err := ls.DrawLabel(page, clip, text, v.opts.labelSize, c); err != nil {
		Logger().Warn("pageview: drawing label", "text", text, "err", err)
	}
}

// request asks the dispatcher for page i unless it is pending or waiting
// for a retry.
func (v *Viewer) request(i int) {
	if v.isPending(i) || v.backingOff(i) || v.doc == nil {
		return
	}
	seq, _ := v.disp.RequestPage(dispatch.Request{Index: i, Scale: v.scale(), Priority: dispatch.PriorityVisible})
	if seq == 0 {
		return
	}
	v.pending[i] = seq
	Logger().Debug("pageview: requested", "page", i, "scale", v.scale(), "seq", seq)
}

// RepaintViewport paints the whole viewport onto s.
func (v *Viewer) RepaintViewport(s surface.Surface) {
	v.Repaint(s, v.scroll, v.scroll+s.Height())
}

// RepaintDamaged paints the rows damaged since the last call and reports
// whether anything visible was painted.
func (v *Viewer) RepaintDamaged(s surface.Surface) bool {
	top, bottom, ok := v.damage.Take()
	if !ok {
		return false
	}
	top, bottom = max(top, v.scroll), min(bottom, v.scroll+s.Height())
	if top >= bottom {
		return false
	}
	v.Repaint(s, top, bottom)
	return true
}
