package topology

import (
	"context"

	"github.com/kestrelnet/shroomd/internal/actor"
	"github.com/kestrelnet/shroomd/internal/clock"
)

// RoomTimer binds a delay queue to one room actor and a tick notifier:
// every due entry is wrapped in a RoomAction and posted to the room.
type RoomTimer[S Session] struct {
	room     *RoomActor[S]
	notifier *actor.TickNotifier
	queue    *actor.DelayQueue[func()]
}

// NewRoomTimer creates a timer that delivers due actions to room.
func NewRoomTimer[S Session](room *RoomActor[S], notifier *actor.TickNotifier) *RoomTimer[S] {
	return &RoomTimer[S]{
		room:     room,
		notifier: notifier,
		queue:    actor.NewDelayQueue[func()](),
	}
}

// ScheduleAt enqueues action to run at dueTick.
func (rt *RoomTimer[S]) ScheduleAt(dueTick clock.Ticks, action func()) {
	rt.queue.Enqueue(dueTick, action)
}

// ScheduleAfterMilliseconds enqueues action delayMs after the notifier's
// last published tick.
func (rt *RoomTimer[S]) ScheduleAfterMilliseconds(delayMs uint64, action func()) {
	last, _ := rt.notifier.LastTick()
	rt.queue.Enqueue(last.AddMillis(delayMs), action)
}

// Run drives the timer loop until ctx is cancelled: wait for the next
// published tick, drain every due action, and post each to the room.
func (rt *RoomTimer[S]) Run(ctx context.Context) error {
	for {
		t, err := rt.notifier.WaitNext(ctx)
		if err != nil {
			return err
		}
		for _, fn := range rt.queue.DrainDue(t) {
			rt.room.Mailbox().Post(RoomAction{Fn: fn})
		}
	}
}
