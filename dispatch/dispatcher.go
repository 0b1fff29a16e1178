// Package dispatch schedules page rasterization on a worker pool and reports
// results as Completion values on a channel.
//
// At most one job exists per page index. A repeated request for the same
// page at the same scale is coalesced with the job already in flight; a
// request at a new scale replaces a queued job in place or cancels a running
// one. Every request that is neither coalesced nor superseded produces
// exactly one Completion.
//
// Completions carry the document epoch returned by SetDocument so that
// consumers can discard results for a document they no longer show.
package dispatch

import (
	"container/heap"
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/internal/parallel"
)

// Priority orders queued jobs. Higher runs first.
type Priority int

// Priorities used by the viewer.
const (
	PriorityPrefetch Priority = 0
	PriorityVisible  Priority = 10
)

// Request asks for page Index rasterized at Scale.
type Request struct {
	Index    int
	Scale    float64
	Priority Priority
}

// Completion reports the outcome of one request.
type Completion struct {
	Index int
	Scale float64
	Epoch uint64

	// Seq identifies the job that produced the completion, as returned by
	// RequestPage. A page re-requested after a cancel gets a new Seq.
	Seq uint64

	Image *image.RGBA
	Err   error
}

// OK reports whether the completion carries an image.
func (c Completion) OK() bool { return c.Err == nil && c.Image != nil }

// Config configures a Dispatcher.
type Config struct {
	// Workers is the number of rasterization goroutines.
	// 0 means GOMAXPROCS.
	Workers int

	// Buffer is the capacity of the completion channel. Default 64.
	Buffer int
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Requested  uint64
	Coalesced  uint64
	Superseded uint64
	Canceled   uint64
	Completed  uint64
	Failed     uint64

	// Pending is the number of pages with a live job.
	Pending int
}

// Dispatcher runs rasterization jobs on a worker pool.
//
// Thread safety: all methods are safe for concurrent use.
type Dispatcher struct {
	mu     sync.Mutex
	doc    document.Document
	epoch  uint64
	jobs   map[int]*job
	queue  jobQueue
	seq    uint64
	tokens int
	closed bool
	stats  Stats

	// renderMu serializes Rasterize for documents that are not reentrant.
	renderMu sync.Mutex

	pool        *parallel.WorkerPool
	ctx         context.Context
	cancelAll   context.CancelFunc
	completions chan Completion
	done        chan struct{}
	wg          sync.WaitGroup
}

// New creates a Dispatcher with no document.
func New(cfg Config) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		jobs:        make(map[int]*job),
		pool:        parallel.NewWorkerPool(cfg.Workers),
		ctx:         ctx,
		cancelAll:   cancel,
		completions: make(chan Completion, cfg.Buffer),
		done:        make(chan struct{}),
	}
}

// SetDocument replaces the rasterization source and returns the new epoch.
// Every outstanding job is cancelled. doc may be nil.
func (d *Dispatcher) SetDocument(doc document.Document) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.epoch++
	d.doc = doc
	n := 0
	for idx, j := range d.jobs {
		j.stale = true
		j.cancel()
		delete(d.jobs, idx)
		n++
	}
	d.stats.Canceled += uint64(n)

	slogger().Debug("dispatch: document set", "epoch", d.epoch, "canceled", n)
	return d.epoch
}

// Epoch returns the current document epoch.
func (d *Dispatcher) Epoch() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.epoch
}

// RequestPage schedules req without blocking and returns the Seq of the job
// that will answer it. queued is false when the request was coalesced with
// a job already in flight for the same page and scale, or when the
// dispatcher is closed (seq is then 0).
//
// RequestPage panics if req.Scale is not a positive finite number.
func (d *Dispatcher) RequestPage(req Request) (seq uint64, queued bool) {
	if !(req.Scale > 0) || math.IsInf(req.Scale, 0) {
		panic(fmt.Sprintf("dispatch: invalid scale %v", req.Scale))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, false
	}
	d.stats.Requested++

	if j, ok := d.jobs[req.Index]; ok {
		switch {
		case j.req.Scale == req.Scale:
			if !j.running && req.Priority > j.req.Priority {
				j.req.Priority = req.Priority
				heap.Fix(&d.queue, j.index)
			}
			d.stats.Coalesced++
			return j.seq, false

		case !j.running:
			j.req = req
			heap.Fix(&d.queue, j.index)
			d.stats.Superseded++
			slogger().Debug("dispatch: superseded", "page", req.Index, "scale", req.Scale)
			return j.seq, true

		default:
			j.stale = true
			j.cancel()
			delete(d.jobs, req.Index)
			d.stats.Canceled++
		}
	}

	ctx, cancel := context.WithCancel(d.ctx)
	d.seq++
	j := &job{
		req:    req,
		epoch:  d.epoch,
		doc:    d.doc,
		seq:    d.seq,
		ctx:    ctx,
		cancel: cancel,
	}
	heap.Push(&d.queue, j)
	d.jobs[req.Index] = j
	d.startToken()

	slogger().Debug("dispatch: queued", "page", req.Index, "scale", req.Scale, "priority", req.Priority)
	return j.seq, true
}

// startToken hands a drain loop to the pool unless every worker already
// runs one. Must be called with mu held. The number of outstanding tokens
// never exceeds the pool size, so Submit never blocks.
func (d *Dispatcher) startToken() {
	if d.tokens >= d.pool.Workers() {
		return
	}
	d.tokens++
	d.wg.Add(1)
	if !d.pool.Submit(d.drain) {
		d.tokens--
		d.wg.Done()
	}
}

// drain runs queued jobs until the queue is empty.
func (d *Dispatcher) drain() {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if d.closed || d.queue.Len() == 0 {
			d.tokens--
			d.mu.Unlock()
			return
		}
		j := heap.Pop(&d.queue).(*job)
		j.running = true
		d.mu.Unlock()

		c := d.execute(j)
		d.finish(j, c)
	}
}

// execute rasterizes one job. It runs without the dispatcher lock.
func (d *Dispatcher) execute(j *job) Completion {
	c := Completion{Index: j.req.Index, Scale: j.req.Scale, Epoch: j.epoch, Seq: j.seq}

	if j.ctx.Err() != nil {
		c.Err = ErrCanceled
		return c
	}
	if j.doc == nil {
		c.Err = ErrNoDocument
		return c
	}
	if err := document.CheckIndex(j.req.Index, j.doc.PageCount()); err != nil {
		c.Err = err
		return c
	}

	img, err := d.rasterize(j)
	switch {
	case j.ctx.Err() != nil:
		c.Err = ErrCanceled
	case err != nil:
		c.Err = &RenderError{Index: j.req.Index, Scale: j.req.Scale, Err: err}
	case img == nil:
		c.Err = &RenderError{Index: j.req.Index, Scale: j.req.Scale, Err: fmt.Errorf("backend returned no image")}
	default:
		c.Image = img
	}
	return c
}

func (d *Dispatcher) rasterize(j *job) (img *image.RGBA, err error) {
	if !document.IsConcurrent(j.doc) {
		d.renderMu.Lock()
		defer d.renderMu.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return j.doc.Rasterize(j.ctx, j.req.Index, j.req.Scale, j.req.Scale, 0)
}

// finish retires j and delivers c.
func (d *Dispatcher) finish(j *job, c Completion) {
	d.mu.Lock()
	if d.jobs[j.req.Index] == j {
		delete(d.jobs, j.req.Index)
	}
	if j.stale {
		c.Image, c.Err = nil, ErrCanceled
	}
	switch {
	case c.Err == nil:
		d.stats.Completed++
	case c.Err != ErrCanceled:
		d.stats.Failed++
	}
	d.mu.Unlock()
	j.cancel()

	if c.Err != nil && c.Err != ErrCanceled {
		slogger().Warn("dispatch: render failed", "page", c.Index, "scale", c.Scale, "err", c.Err)
	}

	select {
	case d.completions <- c:
	case <-d.done:
	}
}

// Completions returns the channel on which results are delivered.
// The channel is never closed; stop receiving after Close.
func (d *Dispatcher) Completions() <-chan Completion {
	return d.completions
}

// CancelOutside cancels every job for a page outside [first, last] and
// returns how many were cancelled. Cancelled jobs complete with ErrCanceled.
func (d *Dispatcher) CancelOutside(first, last int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for idx, j := range d.jobs {
		if idx >= first && idx <= last {
			continue
		}
		j.cancel()
		delete(d.jobs, idx)
		n++
	}
	d.stats.Canceled += uint64(n)
	if n > 0 {
		slogger().Debug("dispatch: canceled offscreen", "first", first, "last", last, "count", n)
	}
	return n
}

// CancelAll cancels every job and returns how many were cancelled.
func (d *Dispatcher) CancelAll() int {
	return d.CancelOutside(1, 0)
}

// RenderNow rasterizes page index of the current document on the calling
// goroutine, bypassing the queue. It honours the same serialization as
// queued jobs.
func (d *Dispatcher) RenderNow(ctx context.Context, index int, scale float64) (*image.RGBA, error) {
	d.mu.Lock()
	doc, epoch := d.doc, d.epoch
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c := d.execute(&job{
		req:   Request{Index: index, Scale: scale},
		epoch: epoch,
		doc:   doc,
		ctx:   ctx,
	})
	return c.Image, c.Err
}

// Pending reports whether page index has a live job.
func (d *Dispatcher) Pending(index int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.jobs[index]
	return ok
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Pending = len(d.jobs)
	return s
}

// Close cancels every job and waits for the workers to stop. Completions
// not yet delivered are dropped. Close does not close the document.
// Close is safe to call multiple times.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.jobs = make(map[int]*job)
	d.queue = nil
	d.mu.Unlock()

	d.cancelAll()
	close(d.done)
	d.wg.Wait()
	d.pool.Close()
}
