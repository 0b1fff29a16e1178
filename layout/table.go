package layout

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// DefaultSpacing is the vertical gap between pages, in device pixels.
const DefaultSpacing = 8

// Size is the base size of a page at the reference scale (72 dpi points).
type Size struct {
	Width  float64
	Height float64
}

// ScaleSize returns base scaled by scale and rounded to whole pixels.
// The scale is zoom × device resolution factor.
func ScaleSize(base Size, scale float64) image.Point {
	return image.Point{
		X: int(math.Round(base.Width * scale)),
		Y: int(math.Round(base.Height * scale)),
	}
}

// Table maps page indices to scaled sizes and vertical offsets for one
// scale and spacing.
//
// Page i owns the slot [YOffset(i), YOffset(i+1)). The slot starts with
// the spacing gap; the page itself is drawn at PageTop(i).
//
// Table is immutable after Build and safe for concurrent reads.
type Table struct {
	spacing int
	scale   float64

	// sizes holds the scaled size of every page.
	sizes []image.Point

	// offsets has len(sizes)+1 entries; offsets[i] is the start of slot i
	// and offsets[len(sizes)] the end of the last slot.
	offsets []int

	width int
}

// Build computes the layout for base sizes at scale in O(n).
//
// Build panics if spacing is negative, scale is not positive and finite, or
// any base size is negative or not finite. These are programmer errors:
// callers validate sizes reported by a document before building.
func Build(base []Size, spacing int, scale float64) *Table {
	if spacing < 0 {
		panic(fmt.Sprintf("layout: negative spacing %d", spacing))
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		panic(fmt.Sprintf("layout: invalid scale %v", scale))
	}

	t := &Table{
		spacing: spacing,
		scale:   scale,
		sizes:   make([]image.Point, len(base)),
		offsets: make([]int, len(base)+1),
	}

	y := 0
	for i, b := range base {
		if err := Validate(b); err != nil {
			panic(fmt.Sprintf("layout: page %d: %v", i, err))
		}
		sz := ScaleSize(b, scale)
		t.sizes[i] = sz
		t.offsets[i] = y
		y += spacing + sz.Y
		if sz.X > t.width {
			t.width = sz.X
		}
	}
	t.offsets[len(base)] = y

	return t
}

// Validate reports whether s is usable as a page size.
func Validate(s Size) error {
	if math.IsNaN(s.Width) || math.IsNaN(s.Height) ||
		math.IsInf(s.Width, 0) || math.IsInf(s.Height, 0) {
		return fmt.Errorf("non-finite size %vx%v", s.Width, s.Height)
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("negative size %vx%v", s.Width, s.Height)
	}
	return nil
}

// Len returns the number of pages.
func (t *Table) Len() int { return len(t.sizes) }

// Scale returns the scale the table was built for.
func (t *Table) Scale() float64 { return t.scale }

// Spacing returns the inter-page gap.
func (t *Table) Spacing() int { return t.spacing }

// ScaledSize returns the scaled size of page i.
func (t *Table) ScaledSize(i int) image.Point {
	return t.sizes[i]
}

// YOffset returns the start of the slot of page i.
// YOffset(Len()) is the end of the last slot.
func (t *Table) YOffset(i int) int {
	return t.offsets[i]
}

// PageTop returns the y coordinate at which page i is drawn.
func (t *Table) PageTop(i int) int {
	return t.offsets[i] + t.spacing
}

// PageRect returns the bounds of page i on a canvas of the given width.
// Pages are centered horizontally.
func (t *Table) PageRect(i, canvasWidth int) image.Rectangle {
	sz := t.sizes[i]
	x := (canvasWidth - sz.X) / 2
	y := t.PageTop(i)
	return image.Rect(x, y, x+sz.X, y+sz.Y)
}

// Width returns the width of the widest page.
func (t *Table) Width() int { return t.width }

// Height returns the total canvas height: every slot plus the trailing gap.
func (t *Table) Height() int {
	if len(t.sizes) == 0 {
		return 0
	}
	return t.offsets[len(t.sizes)] + t.spacing
}

// PageRange returns the contiguous pages whose slots intersect [top, bottom).
// The last slot is extended by the trailing gap. ok is false if no page
// intersects the range.
func (t *Table) PageRange(top, bottom int) (first, last int, ok bool) {
	n := len(t.sizes)
	if n == 0 || bottom <= top || bottom <= 0 || top >= t.Height() {
		return 0, 0, false
	}

	// First slot whose end is past top.
	first = sort.Search(n, func(i int) bool { return t.offsets[i+1] > top })
	if first == n {
		// Only the trailing gap intersects.
		first = n - 1
	}
	// Last slot that starts before bottom.
	last = sort.Search(n, func(i int) bool { return t.offsets[i] >= bottom }) - 1
	if last < first {
		return 0, 0, false
	}
	return first, last, true
}

// PageAt returns the page whose slot contains y. Positions above the canvas
// map to the first page and positions below it to the last page.
// PageAt returns -1 for an empty table.
func (t *Table) PageAt(y int) int {
	n := len(t.sizes)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return t.offsets[i+1] > y })
	if i == n {
		return n - 1
	}
	return i
}

// CurrentPage returns the page containing the vertical midpoint of
// [top, bottom). It returns -1 for an empty table.
func (t *Table) CurrentPage(top, bottom int) int {
	return t.PageAt(top + (bottom-top)/2)
}
