package actor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kestrelnet/shroomd/internal/clock"
)

// Scheduler drives every registered actor on a fixed-interval, two-phase
// tick: a snapshot is taken at the start of each tick so that actors
// registered or removed mid-tick never see a torn iteration.
type Scheduler struct {
	clock    *clock.Clock
	interval time.Duration
	notifier *TickNotifier

	mu     sync.Mutex
	actors []Actor
}

// NewScheduler creates a scheduler over c, ticking every interval.
// interval must be > 0.
func NewScheduler(c *clock.Clock, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("actor: tick interval must be > 0, got %s", interval)
	}
	return &Scheduler{
		clock:    c,
		interval: interval,
		notifier: NewTickNotifier(),
	}, nil
}

// Notifier returns the scheduler's tick notifier.
func (s *Scheduler) Notifier() *TickNotifier {
	return s.notifier
}

// Register adds a to the scheduler. The returned function unregisters it;
// calling it more than once is safe and a no-op after the first call.
func (s *Scheduler) Register(a Actor) func() {
	s.mu.Lock()
	s.actors = append(s.actors, a)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, cur := range s.actors {
				if cur == a {
					s.actors = append(s.actors[:i], s.actors[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Scheduler) snapshot() []Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Actor, len(s.actors))
	copy(out, s.actors)
	return out
}

// Tick runs exactly one two-phase tick targeted at t and publishes t on
// the notifier. Exposed directly so tests can drive the scheduler
// deterministically without waiting on wall-clock sleeps.
func (s *Scheduler) Tick(t clock.Ticks) {
	snap := s.snapshot()

	for _, a := range snap {
		s.driveTick(a, t)
	}
	for _, a := range snap {
		s.driveTickEnd(a, t)
	}

	s.notifier.Publish(t)
}

func (s *Scheduler) driveTick(a Actor, t clock.Ticks) {
	defer recoverHook(a.Name(), "onTick", t)

	for _, msg := range a.Mailbox().Drain() {
		s.deliverMessage(a, msg, t)
	}
	a.OnTickCore(t)
}

func (s *Scheduler) deliverMessage(a Actor, msg any, t clock.Ticks) {
	defer recoverHook(a.Name(), "onMessage", t)
	a.OnMessage(msg, t)
}

func (s *Scheduler) driveTickEnd(a Actor, t clock.Ticks) {
	defer recoverHook(a.Name(), "onTickEnd", t)
	a.OnTickEnd(t)
}

func recoverHook(actorName, hook string, t clock.Ticks) {
	if r := recover(); r != nil {
		slog.Error("actor hook panicked", "actor", actorName, "hook", hook, "tick", uint64(t), "panic", r)
	}
}

// Run starts the tick loop and blocks until ctx is cancelled. The loop
// never skips a tick: if the process falls behind, the next tick runs
// immediately instead of sleeping.
func (s *Scheduler) Run(ctx context.Context) error {
	target := s.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.Tick(target)

		target = target.AddMillis(uint64(s.interval.Milliseconds()))
		sleep := time.Until(s.clock.TimeAt(target))
		if sleep <= 0 {
			continue
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
