package actor

import (
	"context"
	"sync"

	"github.com/kestrelnet/shroomd/internal/clock"
)

// TickNotifier fans out tick-publish events to any number of concurrent
// waiters. Every waiter registered before a Publish call sees the same
// published tick.
type TickNotifier struct {
	mu      sync.Mutex
	waiters map[uint64]chan clock.Ticks
	nextID  uint64
	last    clock.Ticks
	hasLast bool
}

// NewTickNotifier creates an empty notifier.
func NewTickNotifier() *TickNotifier {
	return &TickNotifier{waiters: make(map[uint64]chan clock.Ticks)}
}

// Publish resolves every current waiter with t and records it as the last
// published tick.
func (n *TickNotifier) Publish(t clock.Ticks) {
	n.mu.Lock()
	n.last = t
	n.hasLast = true
	waiters := n.waiters
	n.waiters = make(map[uint64]chan clock.Ticks)
	n.mu.Unlock()

	for _, ch := range waiters {
		ch <- t
		close(ch)
	}
}

// WaitNext blocks until the next Publish call, returning the published
// tick. Cancelling ctx removes this waiter and returns ctx.Err().
func (n *TickNotifier) WaitNext(ctx context.Context) (clock.Ticks, error) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	ch := make(chan clock.Ticks, 1)
	n.waiters[id] = ch
	n.mu.Unlock()

	select {
	case t := <-ch:
		return t, nil
	case <-ctx.Done():
		n.mu.Lock()
		delete(n.waiters, id)
		n.mu.Unlock()
		return 0, ctx.Err()
	}
}

// LastTick returns the most recently published tick, and false if no tick
// has been published yet.
func (n *TickNotifier) LastTick() (clock.Ticks, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last, n.hasLast
}
