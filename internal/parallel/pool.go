// Package parallel provides the goroutine pool that runs page rasterization.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines for background rasterization.
//
// Each worker has its own queue. Workers steal from other queues when their
// own is empty, so a slow page render does not hold back jobs queued behind
// it once another worker frees up.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// workQueues holds per-worker work queues.
	workQueues []chan func()

	// busy[i] is set while worker i executes a work item.
	busy []atomic.Bool

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// executed counts completed work items.
	executed atomic.Uint64
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		busy:       make([]atomic.Bool, workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drainQueue(id)
			return

		case work := <-myQueue:
			p.run(id, work)

		default:
			if stolen := p.steal(id); stolen != nil {
				p.run(id, stolen)
				continue
			}
			// No work available anywhere, block on own queue
			select {
			case <-p.done:
				p.drainQueue(id)
				return
			case work := <-myQueue:
				p.run(id, work)
			}
		}
	}
}

func (p *WorkerPool) run(id int, work func()) {
	if work == nil {
		return
	}
	p.busy[id].Store(true)
	defer p.busy[id].Store(false)
	work()
	p.executed.Add(1)
}

// drainQueue executes all remaining work in a worker's queue.
func (p *WorkerPool) drainQueue(id int) {
	for {
		select {
		case work := <-p.workQueues[id]:
			p.run(id, work)
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// Submit sends a single work item to the pool.
//
// An idle worker with an empty queue is preferred; otherwise the work goes
// to the shortest queue. Submit blocks while that queue is full.
// If the pool is closed, Submit is a no-op and returns false.
func (p *WorkerPool) Submit(fn func()) bool {
	if fn == nil || !p.running.Load() {
		return false
	}

	target := -1
	minLen := 0
	for i := range p.workers {
		qLen := len(p.workQueues[i])
		if qLen == 0 && !p.busy[i].Load() {
			target = i
			break
		}
		if target < 0 || qLen < minLen {
			target, minLen = i, qLen
		}
	}

	select {
	case p.workQueues[target] <- fn:
		return true
	case <-p.done:
		return false
	}
}

// Close gracefully shuts down the pool.
// It stops accepting new work, runs the work already queued,
// and then stops all workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns the total number of work items currently queued.
// This is an approximation as queues can change while iterating.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for _, q := range p.workQueues {
		total += len(q)
	}
	return total
}

// Busy returns the number of workers currently executing work.
func (p *WorkerPool) Busy() int {
	n := 0
	for i := range p.busy {
		if p.busy[i].Load() {
			n++
		}
	}
	return n
}

// Executed returns the number of work items completed since creation.
func (p *WorkerPool) Executed() uint64 {
	return p.executed.Load()
}
