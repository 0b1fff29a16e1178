package pageview

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Bitmap is a rendered page held by the cache. It is only valid for the
// scale it was rendered at.
type Bitmap struct {
	Image *image.RGBA
	Scale float64
}

// PageState is the render state of one page.
type PageState uint8

const (
	// PageUnrendered pages have no bitmap and no job in flight.
	PageUnrendered PageState = iota

	// PagePending pages have a render job in flight.
	PagePending

	// PageCached pages have a bitmap at the current scale.
	PageCached

	// PageFailed pages exhausted their retries and show an error tile.
	PageFailed
)

// String returns the state name.
func (s PageState) String() string {
	switch s {
	case PageUnrendered:
		return "Unrendered"
	case PagePending:
		return "Pending"
	case PageCached:
		return "Cached"
	case PageFailed:
		return "Failed"
	default:
		return fmt.Sprintf("PageState(%d)", uint8(s))
	}
}

// NavInfo describes the current page and zoom.
type NavInfo struct {
	// Index is the 0-based current page.
	Index int

	// Total is the page count.
	Total int

	// Zoom is the zoom factor (1 = 100%).
	Zoom float64
}

// String formats the info for English, e.g. "page 3 of 1,204 (125%)".
func (n NavInfo) String() string {
	return n.Format(language.English)
}

// Format formats the info with the number conventions of tag.
func (n NavInfo) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	if n.Total == 0 {
		return p.Sprintf("no document (%d%%)", int(math.Round(n.Zoom*100)))
	}
	return p.Sprintf("page %d of %d (%d%%)", n.Index+1, n.Total, int(math.Round(n.Zoom*100)))
}
