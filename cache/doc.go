// Package cache provides the bounded bitmap store used by the viewer.
//
// # Cache[K, V]
//
// A fixed-capacity map with a single eviction queue. When an insertion
// pushes the number of entries over capacity, the entry at the head of the
// queue is evicted.
//
//	c := cache.New[int, Bitmap](9, cache.FIFO)
//	c.Insert(3, bm)
//	bm, ok := c.Lookup(3)
//
// # Policies
//
// FIFO (the default) orders the queue by insertion time only. Lookups never
// reorder entries, so a page that is read on every repaint is still evicted
// once it becomes the oldest insertion.
//
// LRU moves an entry to the newest position on every successful Lookup.
// It keeps frequently painted pages alive longer, but the eviction sequence
// differs observably from FIFO.
//
// In both policies re-inserting an existing key replaces its value and
// moves it to the newest position.
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after creation.
package cache
