// Package damage accumulates invalidated vertical ranges of the canvas
// between repaints.
package damage

import (
	"math/bits"
	"sync/atomic"
)

// DefaultBandHeight is the height of one tracked band in pixels.
const DefaultBandHeight = 64

// Tracker records which horizontal bands of the canvas need repainting,
// using an atomic bitmap with one bit per band.
//
// All methods are safe for concurrent use without external synchronization,
// so retry timers may mark damage while the control goroutine repaints.
type Tracker struct {
	// words is the bitmap; bit i is band i.
	words []atomic.Uint64

	bands      int
	bandHeight int
	height     int
}

// New creates a tracker for a canvas of the given height.
// All bands start clean. Returns nil if height or bandHeight is not positive.
func New(height, bandHeight int) *Tracker {
	if height <= 0 || bandHeight <= 0 {
		return nil
	}

	bands := (height + bandHeight - 1) / bandHeight
	return &Tracker{
		words:      make([]atomic.Uint64, (bands+63)/64),
		bands:      bands,
		bandHeight: bandHeight,
		height:     height,
	}
}

// markBand marks a single band as dirty. Lock-free O(1).
func (t *Tracker) markBand(b int) {
	t.words[b/64].Or(1 << (b & 63))
}

// Mark marks every band intersecting [top, bottom) as dirty.
// Ranges outside the canvas are clipped; empty ranges are ignored.
func (t *Tracker) Mark(top, bottom int) {
	if t == nil {
		return
	}
	top = max(top, 0)
	bottom = min(bottom, t.height)
	if bottom <= top {
		return
	}

	b1 := top / t.bandHeight
	b2 := (bottom - 1) / t.bandHeight
	for b := b1; b <= b2; b++ {
		t.markBand(b)
	}
}

// MarkAll marks the whole canvas as dirty.
func (t *Tracker) MarkAll() {
	if t == nil {
		return
	}
	full := t.bands / 64
	for i := 0; i < full; i++ {
		t.words[i].Store(^uint64(0))
	}
	if rem := t.bands % 64; rem > 0 {
		t.words[full].Or((uint64(1) << rem) - 1)
	}
}

// IsDirty reports whether the band containing y is dirty.
func (t *Tracker) IsDirty(y int) bool {
	if t == nil || y < 0 || y >= t.height {
		return false
	}
	b := y / t.bandHeight
	return t.words[b/64].Load()&(1<<(b&63)) != 0
}

// IsEmpty returns true if nothing is dirty.
func (t *Tracker) IsEmpty() bool {
	if t == nil {
		return true
	}
	for i := range t.words {
		if t.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of dirty bands.
func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	n := 0
	for i := range t.words {
		n += bits.OnesCount64(t.words[i].Load())
	}
	return n
}

// Take atomically clears the tracker and returns the smallest range
// [top, bottom) covering every band that was dirty. ok is false if nothing
// was dirty.
func (t *Tracker) Take() (top, bottom int, ok bool) {
	if t == nil {
		return 0, 0, false
	}
	first, last := -1, -1
	for i := range t.words {
		w := t.words[i].Swap(0)
		if w == 0 {
			continue
		}
		lo := i*64 + bits.TrailingZeros64(w)
		hi := i*64 + 63 - bits.LeadingZeros64(w)
		if first < 0 {
			first = lo
		}
		last = hi
	}
	if first < 0 {
		return 0, 0, false
	}
	top = first * t.bandHeight
	bottom = min((last+1)*t.bandHeight, t.height)
	return top, bottom, true
}

// Clear marks everything clean.
func (t *Tracker) Clear() {
	if t == nil {
		return
	}
	for i := range t.words {
		t.words[i].Store(0)
	}
}

// Height returns the canvas height the tracker covers.
func (t *Tracker) Height() int {
	if t == nil {
		return 0
	}
	return t.height
}

// BandHeight returns the band height in pixels.
func (t *Tracker) BandHeight() int {
	if t == nil {
		return 0
	}
	return t.bandHeight
}
