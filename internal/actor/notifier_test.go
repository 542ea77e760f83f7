package actor

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelnet/shroomd/internal/clock"
)

func TestTickNotifierPublishWakesWaiters(t *testing.T) {
	n := NewTickNotifier()
	ctx := context.Background()

	results := make(chan clock.Ticks, 2)
	for i := 0; i < 2; i++ {
		go func() {
			tick, err := n.WaitNext(ctx)
			if err != nil {
				t.Errorf("WaitNext: %v", err)
				return
			}
			results <- tick
		}()
	}

	time.Sleep(10 * time.Millisecond)
	n.Publish(clock.Ticks(42))

	for i := 0; i < 2; i++ {
		select {
		case got := <-results:
			if got != clock.Ticks(42) {
				t.Fatalf("got tick %d, want 42", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notifier publish")
		}
	}
}

func TestTickNotifierWaitNextCancelled(t *testing.T) {
	n := NewTickNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.WaitNext(ctx)
	if err == nil {
		t.Fatal("WaitNext returned nil error for cancelled context")
	}
}

func TestTickNotifierLastTick(t *testing.T) {
	n := NewTickNotifier()
	if _, ok := n.LastTick(); ok {
		t.Fatal("LastTick reported a tick before any Publish")
	}
	n.Publish(clock.Ticks(7))
	got, ok := n.LastTick()
	if !ok || got != clock.Ticks(7) {
		t.Fatalf("LastTick() = (%d, %v), want (7, true)", got, ok)
	}
}
