package topology

import (
	"log/slog"

	"github.com/kestrelnet/shroomd/internal/actor"
	"github.com/kestrelnet/shroomd/internal/clock"
)

// RegisterChannel asks a world to adopt a channel actor.
type RegisterChannel struct {
	Id      ChannelId
	Channel *ChannelActor
}

// RemoveChannel asks a world to forget a channel actor.
type RemoveChannel struct {
	Id ChannelId
}

// WorldAction is a deferred closure run at the world's next OnTickCore.
type WorldAction struct {
	Fn func()
}

// WorldActor owns the set of channels belonging to one world and a queue
// of actions deferred to the next tick.
type WorldActor struct {
	actor.Base

	id       WorldId
	channels map[ChannelId]*ChannelActor
	deferred []func()
}

// NewWorldActor creates a world actor with a fresh mailbox.
func NewWorldActor(id WorldId, name string, mailboxCapacity int) *WorldActor {
	return &WorldActor{
		Base:     actor.NewBase(name, mailboxCapacity),
		id:       id,
		channels: make(map[ChannelId]*ChannelActor),
	}
}

// Id returns the world's identity.
func (w *WorldActor) Id() WorldId {
	return w.id
}

// Channel looks up a registered channel by id.
func (w *WorldActor) Channel(id ChannelId) (*ChannelActor, bool) {
	c, ok := w.channels[id]
	return c, ok
}

// OnMessage handles RegisterChannel, RemoveChannel and WorldAction.
func (w *WorldActor) OnMessage(msg any, t clock.Ticks) {
	switch m := msg.(type) {
	case RegisterChannel:
		w.channels[m.Id] = m.Channel
	case RemoveChannel:
		delete(w.channels, m.Id)
	case WorldAction:
		w.deferred = append(w.deferred, m.Fn)
	default:
		slog.Warn("world actor received unknown message", "world", w.Name(), "type", msg)
	}
}

// OnTickCore runs every deferred WorldAction queued this tick, then clears
// the queue.
func (w *WorldActor) OnTickCore(t clock.Ticks) {
	for _, fn := range w.deferred {
		fn()
	}
	w.deferred = w.deferred[:0]
}
