package actor

import (
	"container/heap"
	"sync"

	"github.com/kestrelnet/shroomd/internal/clock"
)

// DelayQueue is an internally synchronised priority queue of values keyed
// by an absolute due tick. Ties are broken by insertion order.
type DelayQueue[T any] struct {
	mu  sync.Mutex
	h   delayHeap[T]
	seq uint64
}

// NewDelayQueue creates an empty delay queue.
func NewDelayQueue[T any]() *DelayQueue[T] {
	return &DelayQueue[T]{}
}

// Enqueue schedules value to become due at due.
func (q *DelayQueue[T]) Enqueue(due clock.Ticks, value T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.h, delayEntry[T]{due: due, seq: q.seq, value: value})
	q.seq++
}

// DrainDue removes and returns, in dueTick order (ties by insertion
// order), every entry whose dueTick is <= now.
func (q *DelayQueue[T]) DrainDue(now clock.Ticks) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []T
	for len(q.h) > 0 && q.h[0].due <= now {
		e := heap.Pop(&q.h).(delayEntry[T])
		out = append(out, e.value)
	}
	return out
}

// Len returns the number of entries currently queued.
func (q *DelayQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

type delayEntry[T any] struct {
	due   clock.Ticks
	seq   uint64
	value T
}

type delayHeap[T any] []delayEntry[T]

func (h delayHeap[T]) Len() int { return len(h) }

func (h delayHeap[T]) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h delayHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *delayHeap[T]) Push(x any) {
	*h = append(*h, x.(delayEntry[T]))
}

func (h *delayHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
