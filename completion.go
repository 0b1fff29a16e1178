package pageview

import (
	"context"
	"errors"
	"image"

	"github.com/gogpu/pageview/dispatch"
	"github.com/gogpu/pageview/document"
)

// Completions returns the channel of render results. Hosts with an event
// loop select on it and pass each value to HandleCompletion.
func (v *Viewer) Completions() <-chan dispatch.Completion {
	return v.disp.Completions()
}

// HandleCompletion applies one render result and reports whether it was
// accepted. Results for another document or another zoom are dropped, as
// are results of an older job while a newer one for the page is pending.
func (v *Viewer) HandleCompletion(c dispatch.Completion) bool {
	if v.closed || v.doc == nil || c.Epoch != v.epoch || c.Scale != v.scale() {
		Logger().Debug("pageview: dropped stale completion", "page", c.Index, "scale", c.Scale, "epoch", c.Epoch)
		return false
	}
	if c.Index < 0 || c.Index >= v.table.Len() {
		return false
	}

	i := c.Index
	if seq, ok := v.pending[i]; ok && seq != c.Seq {
		Logger().Debug("pageview: dropped superseded completion", "page", i, "seq", c.Seq, "want", seq)
		return false
	}

	switch {
	case c.OK():
		delete(v.pending, i)
		if rs := v.retries[i]; rs != nil {
			rs.cancel()
			delete(v.retries, i)
		}
		delete(v.failed, i)
		if evicted, ok := v.cache.Insert(i, Bitmap{Image: c.Image, Scale: c.Scale}); ok {
			Logger().Debug("pageview: evicted", "page", evicted)
		}

	case errors.Is(c.Err, dispatch.ErrCanceled):
		if !v.isPending(i) {
			return false
		}
		delete(v.pending, i)

	default:
		delete(v.pending, i)
		v.recordFailure(i, c.Err)
	}

	v.markPage(i)
	v.notifyRepaint()
	return true
}

// ProcessPending applies every completion already delivered without
// blocking and returns how many were accepted.
func (v *Viewer) ProcessPending() int {
	n := 0
	for {
		select {
		case c := <-v.disp.Completions():
			if v.HandleCompletion(c) {
				n++
			}
		default:
			return n
		}
	}
}

// AwaitRender blocks until no page is pending, applying completions as
// they arrive. Retries that are not yet due do not count as pending.
func (v *Viewer) AwaitRender(ctx context.Context) error {
	for len(v.pending) > 0 {
		select {
		case c := <-v.disp.Completions():
			v.HandleCompletion(c)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// RenderFullPage renders page index at zoom 1 on the calling goroutine,
// bypassing the cache and the queue.
func (v *Viewer) RenderFullPage(ctx context.Context, index int) (*image.RGBA, error) {
	if v.closed {
		return nil, ErrClosed
	}
	if v.doc == nil {
		return nil, ErrNoDocument
	}
	if err := document.CheckIndex(index, v.table.Len()); err != nil {
		return nil, err
	}
	return v.disp.RenderNow(ctx, index, v.opts.resolution)
}
