package dispatch

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/pageview/document"
)

// =============================================================================
// Fake document
// =============================================================================

type fakeDoc struct {
	pages      int
	concurrent bool
	delay      time.Duration

	// gate blocks Rasterize until closed or the job is cancelled.
	gate    chan struct{}
	started chan int

	fail   map[int]error
	panics map[int]bool

	mu        sync.Mutex
	order     []int
	active    atomic.Int32
	maxActive atomic.Int32
}

func newFakeDoc(pages int) *fakeDoc {
	return &fakeDoc{pages: pages, started: make(chan int, 64)}
}

func (f *fakeDoc) PageCount() int { return f.pages }

func (f *fakeDoc) PageSize(index int) (document.Size, error) {
	if err := document.CheckIndex(index, f.pages); err != nil {
		return document.Size{}, err
	}
	return document.Size{Width: 10, Height: 10}, nil
}

func (f *fakeDoc) Rasterize(ctx context.Context, index int, sx, sy, _ float64) (*image.RGBA, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.order = append(f.order, index)
	f.mu.Unlock()
	f.started <- index

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics[index] {
		panic("corrupt page")
	}
	if err := f.fail[index]; err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, int(10*sx), int(10*sy))), nil
}

func (f *fakeDoc) ConcurrentRasterize() bool { return f.concurrent }

func (f *fakeDoc) Close() error { return nil }

func (f *fakeDoc) rendered() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.order)
}

// waitStarted blocks until Rasterize has been entered for index.
func (f *fakeDoc) waitStarted(t *testing.T, index int) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-f.started:
			if got == index {
				return
			}
		case <-timeout:
			t.Fatalf("page %d never started", index)
		}
	}
}

func newDispatcher(t *testing.T, workers int, doc document.Document) *Dispatcher {
	t.Helper()
	d := New(Config{Workers: workers})
	t.Cleanup(d.Close)
	if doc != nil {
		d.SetDocument(doc)
	}
	return d
}

func recv(t *testing.T, d *Dispatcher) Completion {
	t.Helper()
	select {
	case c := <-d.Completions():
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completion")
		return Completion{}
	}
}

func recvN(t *testing.T, d *Dispatcher, n int) map[int]Completion {
	t.Helper()
	got := make(map[int]Completion, n)
	for range n {
		c := recv(t, d)
		got[c.Index] = c
	}
	return got
}

func expectNone(t *testing.T, d *Dispatcher) {
	t.Helper()
	select {
	case c := <-d.Completions():
		t.Errorf("unexpected completion %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

// =============================================================================
// Basic results
// =============================================================================

func TestRequestPage_Success(t *testing.T) {
	d := newDispatcher(t, 2, newFakeDoc(3))

	seq, ok := d.RequestPage(Request{Index: 1, Scale: 2})
	if !ok || seq == 0 {
		t.Fatalf("RequestPage() = %d, %v, want a nonzero seq, true", seq, ok)
	}
	c := recv(t, d)
	if !c.OK() || c.Index != 1 || c.Scale != 2 || c.Epoch != 1 || c.Seq != seq {
		t.Fatalf("completion = %+v, want page 1 scale 2 epoch 1 seq %d", c, seq)
	}
	if b := c.Image.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("image bounds = %v, want 20x20", b)
	}
	if s := d.Stats(); s.Completed != 1 || s.Pending != 0 {
		t.Errorf("Stats() = %+v, want 1 completed, 0 pending", s)
	}
}

func TestRequestPage_Errors(t *testing.T) {
	t.Run("no document", func(t *testing.T) {
		d := newDispatcher(t, 1, nil)
		d.RequestPage(Request{Index: 0, Scale: 1})
		if c := recv(t, d); !errors.Is(c.Err, ErrNoDocument) {
			t.Errorf("Err = %v, want ErrNoDocument", c.Err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		d := newDispatcher(t, 1, newFakeDoc(2))
		d.RequestPage(Request{Index: 5, Scale: 1})
		if c := recv(t, d); !errors.Is(c.Err, document.ErrPageOutOfRange) {
			t.Errorf("Err = %v, want ErrPageOutOfRange", c.Err)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		broken := errors.New("broken xref")
		doc := newFakeDoc(2)
		doc.fail = map[int]error{1: broken}
		d := newDispatcher(t, 1, doc)
		d.RequestPage(Request{Index: 1, Scale: 1})

		c := recv(t, d)
		var re *RenderError
		if !errors.As(c.Err, &re) || re.Index != 1 || !errors.Is(c.Err, broken) {
			t.Errorf("Err = %v, want *RenderError wrapping %v", c.Err, broken)
		}
		if c.OK() {
			t.Error("OK() = true for failed completion")
		}
		if s := d.Stats(); s.Failed != 1 {
			t.Errorf("Stats().Failed = %d, want 1", s.Failed)
		}
	})

	t.Run("backend panic", func(t *testing.T) {
		doc := newFakeDoc(1)
		doc.panics = map[int]bool{0: true}
		d := newDispatcher(t, 1, doc)
		d.RequestPage(Request{Index: 0, Scale: 1})

		var re *RenderError
		if c := recv(t, d); !errors.As(c.Err, &re) {
			t.Errorf("Err = %v, want *RenderError", c.Err)
		}
	})
}

func TestRequestPage_InvalidScalePanics(t *testing.T) {
	d := newDispatcher(t, 1, newFakeDoc(1))
	for _, s := range []float64{0, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("RequestPage(scale %v) did not panic", s)
				}
			}()
			d.RequestPage(Request{Index: 0, Scale: s})
		}()
	}
}

// =============================================================================
// One job per page
// =============================================================================

func TestRequestPage_Coalesce(t *testing.T) {
	doc := newFakeDoc(1)
	doc.gate = make(chan struct{})
	d := newDispatcher(t, 1, doc)

	first, _ := d.RequestPage(Request{Index: 0, Scale: 1})
	doc.waitStarted(t, 0)
	seq, ok := d.RequestPage(Request{Index: 0, Scale: 1})
	if ok {
		t.Error("duplicate request while running should be coalesced")
	}
	if seq != first {
		t.Errorf("coalesced seq = %d, want the running job's %d", seq, first)
	}

	close(doc.gate)
	if c := recv(t, d); !c.OK() || c.Seq != first {
		t.Fatalf("completion = %+v, want success with seq %d", c, first)
	}
	expectNone(t, d)

	if s := d.Stats(); s.Requested != 2 || s.Coalesced != 1 {
		t.Errorf("Stats() = %+v, want 2 requested, 1 coalesced", s)
	}
	if got := doc.rendered(); len(got) != 1 {
		t.Errorf("rasterized %v, want one call", got)
	}
}

func TestRequestPage_SupersedeQueued(t *testing.T) {
	doc := newFakeDoc(2)
	doc.gate = make(chan struct{})
	d := newDispatcher(t, 1, doc)

	d.RequestPage(Request{Index: 0, Scale: 1})
	doc.waitStarted(t, 0)
	queued, _ := d.RequestPage(Request{Index: 1, Scale: 1})
	seq, ok := d.RequestPage(Request{Index: 1, Scale: 2})
	if !ok || seq != queued {
		t.Errorf("RequestPage() = %d, %v, want %d, true: a new scale supersedes the queued job", seq, ok, queued)
	}

	close(doc.gate)
	got := recvN(t, d, 2)
	if c := got[1]; !c.OK() || c.Scale != 2 {
		t.Errorf("page 1 completion = %+v, want success at scale 2", c)
	}
	expectNone(t, d)
	if s := d.Stats(); s.Superseded != 1 {
		t.Errorf("Stats().Superseded = %d, want 1", s.Superseded)
	}
}

func TestRequestPage_ReplaceRunning(t *testing.T) {
	doc := newFakeDoc(1)
	doc.gate = make(chan struct{})
	d := newDispatcher(t, 1, doc)

	d.RequestPage(Request{Index: 0, Scale: 1})
	doc.waitStarted(t, 0)
	if _, ok := d.RequestPage(Request{Index: 0, Scale: 2}); !ok {
		t.Fatal("request at a new scale should replace the running job")
	}

	stale := recv(t, d)
	if !errors.Is(stale.Err, ErrCanceled) || stale.Scale != 1 {
		t.Errorf("first completion = %+v, want ErrCanceled at scale 1", stale)
	}

	doc.waitStarted(t, 0)
	close(doc.gate)
	fresh := recv(t, d)
	if !fresh.OK() || fresh.Scale != 2 {
		t.Errorf("second completion = %+v, want success at scale 2", fresh)
	}
	if fresh.Seq == stale.Seq {
		t.Errorf("replacement job reused seq %d", stale.Seq)
	}
}

func TestRequestPage_PriorityOrder(t *testing.T) {
	doc := newFakeDoc(4)
	doc.gate = make(chan struct{})
	d := newDispatcher(t, 1, doc)

	d.RequestPage(Request{Index: 0, Scale: 1, Priority: PriorityVisible})
	doc.waitStarted(t, 0)
	d.RequestPage(Request{Index: 1, Scale: 1, Priority: PriorityPrefetch})
	d.RequestPage(Request{Index: 2, Scale: 1, Priority: PriorityVisible})
	d.RequestPage(Request{Index: 3, Scale: 1, Priority: PriorityVisible})

	close(doc.gate)
	recvN(t, d, 4)

	if got, want := doc.rendered(), []int{0, 2, 3, 1}; !slices.Equal(got, want) {
		t.Errorf("render order = %v, want %v", got, want)
	}
}

// =============================================================================
// Cancellation
// =============================================================================

func TestCancelOutside(t *testing.T) {
	doc := newFakeDoc(4)
	doc.gate = make(chan struct{})
	d := newDispatcher(t, 1, doc)

	for i := range 4 {
		d.RequestPage(Request{Index: i, Scale: 1})
	}
	doc.waitStarted(t, 0)

	if n := d.CancelOutside(0, 1); n != 2 {
		t.Errorf("CancelOutside(0, 1) = %d, want 2", n)
	}
	if d.Pending(2) || !d.Pending(1) {
		t.Error("Pending() mismatch after CancelOutside")
	}

	close(doc.gate)
	got := recvN(t, d, 4)
	for i := range 4 {
		canceled := errors.Is(got[i].Err, ErrCanceled)
		if want := i >= 2; canceled != want {
			t.Errorf("page %d canceled = %v, want %v", i, canceled, want)
		}
	}
	if r := doc.rendered(); slices.Contains(r, 2) || slices.Contains(r, 3) {
		t.Errorf("cancelled pages were rasterized: %v", r)
	}
}

func TestSetDocument_CancelsAndBumpsEpoch(t *testing.T) {
	old := newFakeDoc(2)
	old.gate = make(chan struct{})
	d := newDispatcher(t, 1, old)

	d.RequestPage(Request{Index: 0, Scale: 1})
	old.waitStarted(t, 0)

	if epoch := d.SetDocument(newFakeDoc(2)); epoch != 2 {
		t.Errorf("SetDocument() = %d, want 2", epoch)
	}
	c := recv(t, d)
	if !errors.Is(c.Err, ErrCanceled) || c.Epoch != 1 {
		t.Errorf("completion = %+v, want ErrCanceled from epoch 1", c)
	}

	d.RequestPage(Request{Index: 0, Scale: 1})
	if c := recv(t, d); !c.OK() || c.Epoch != 2 {
		t.Errorf("completion = %+v, want success in epoch 2", c)
	}
}

// =============================================================================
// Concurrency
// =============================================================================

func TestSerializesNonConcurrentDocuments(t *testing.T) {
	doc := newFakeDoc(8)
	doc.delay = 5 * time.Millisecond
	d := newDispatcher(t, 4, doc)

	for i := range 8 {
		d.RequestPage(Request{Index: i, Scale: 1})
	}
	recvN(t, d, 8)

	if m := doc.maxActive.Load(); m != 1 {
		t.Errorf("max concurrent Rasterize calls = %d, want 1", m)
	}
}

func TestClose(t *testing.T) {
	doc := newFakeDoc(1)
	doc.gate = make(chan struct{})
	d := New(Config{Workers: 1})
	d.SetDocument(doc)

	d.RequestPage(Request{Index: 0, Scale: 1})
	doc.waitStarted(t, 0)

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close() blocked on a running job")
	}

	d.Close()
	if seq, ok := d.RequestPage(Request{Index: 0, Scale: 1}); ok || seq != 0 {
		t.Errorf("RequestPage after Close = %d, %v, want 0, false", seq, ok)
	}
}

func TestRenderNow(t *testing.T) {
	d := newDispatcher(t, 1, newFakeDoc(2))

	img, err := d.RenderNow(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("RenderNow() error = %v", err)
	}
	if img.Bounds().Dx() != 30 {
		t.Errorf("width = %d, want 30", img.Bounds().Dx())
	}
	expectNone(t, d)
}
