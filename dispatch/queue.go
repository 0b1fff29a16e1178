package dispatch

import (
	"context"

	"github.com/gogpu/pageview/document"
)

// job is one scheduled rasterization. A job is owned by the dispatcher
// mutex until a worker pops it; after that only cancel and stale change.
type job struct {
	req    Request
	epoch  uint64
	doc    document.Document
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc

	// index in jobQueue, -1 once popped.
	index   int
	running bool

	// stale jobs were replaced while running; their result is dropped.
	stale bool
}

// jobQueue is a container/heap ordered by priority (highest first), then
// submission order.
type jobQueue []*job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].req.Priority != q[j].req.Priority {
		return q[i].req.Priority > q[j].req.Priority
	}
	return q[i].seq < q[j].seq
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x any) {
	j := x.(*job)
	j.index = len(*q)
	*q = append(*q, j)
}

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*q = old[:n-1]
	return j
}
