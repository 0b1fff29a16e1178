package cache

// queueNode is a node in the doubly-linked eviction queue.
// The node stores its key for O(1) deletion from the parent map.
type queueNode[K comparable] struct {
	key  K
	prev *queueNode[K]
	next *queueNode[K]
}

// queue is a doubly-linked list ordered from newest (head) to oldest (tail).
// The queue is not thread-safe; callers must handle synchronization.
type queue[K comparable] struct {
	head *queueNode[K]
	tail *queueNode[K]
	len  int
}

// Len returns the number of nodes in the queue.
func (q *queue[K]) Len() int {
	return q.len
}

// PushFront adds a new node at the newest position.
func (q *queue[K]) PushFront(key K) *queueNode[K] {
	node := &queueNode[K]{key: key}
	q.linkFront(node)
	return node
}

// MoveToFront moves an existing node to the newest position.
func (q *queue[K]) MoveToFront(node *queueNode[K]) {
	if node == nil || node == q.head {
		return
	}
	q.unlink(node)
	q.linkFront(node)
}

// Remove removes a node from the queue.
func (q *queue[K]) Remove(node *queueNode[K]) {
	if node == nil {
		return
	}
	q.unlink(node)
}

// RemoveOldest removes and returns the key at the tail.
// Returns zero value and false if the queue is empty.
func (q *queue[K]) RemoveOldest() (K, bool) {
	if q.tail == nil {
		var zero K
		return zero, false
	}
	node := q.tail
	q.unlink(node)
	return node.key, true
}

// Keys returns the keys from oldest to newest.
func (q *queue[K]) Keys() []K {
	keys := make([]K, 0, q.len)
	for n := q.tail; n != nil; n = n.prev {
		keys = append(keys, n.key)
	}
	return keys
}

// Clear removes all nodes from the queue.
func (q *queue[K]) Clear() {
	q.head = nil
	q.tail = nil
	q.len = 0
}

func (q *queue[K]) linkFront(node *queueNode[K]) {
	node.prev = nil
	node.next = q.head
	if q.head != nil {
		q.head.prev = node
	}
	q.head = node
	if q.tail == nil {
		q.tail = node
	}
	q.len++
}

// unlink detaches a node and clears its pointers.
func (q *queue[K]) unlink(node *queueNode[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		q.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		q.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	q.len--
}
