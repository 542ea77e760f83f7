package topology

import (
	"log/slog"

	"github.com/kestrelnet/shroomd/internal/actor"
	"github.com/kestrelnet/shroomd/internal/clock"
)

// RegisterRoom asks a channel to adopt a room actor.
type RegisterRoom struct {
	Id   RoomId
	Room any
}

// RemoveRoom asks a channel to forget a room actor.
type RemoveRoom struct {
	Id RoomId
}

// ChannelAction is a deferred closure run at the channel's next OnTickCore.
type ChannelAction struct {
	Fn func()
}

// ChannelActor owns the set of rooms belonging to one channel. Each
// channel is owned by exactly one world.
type ChannelActor struct {
	actor.Base

	id       ChannelId
	worldId  WorldId
	rooms    map[RoomId]any
	deferred []func()
}

// NewChannelActor creates a channel actor owned by worldId.
func NewChannelActor(id ChannelId, worldId WorldId, name string, mailboxCapacity int) *ChannelActor {
	return &ChannelActor{
		Base:    actor.NewBase(name, mailboxCapacity),
		id:      id,
		worldId: worldId,
		rooms:   make(map[RoomId]any),
	}
}

// Id returns the channel's identity.
func (c *ChannelActor) Id() ChannelId {
	return c.id
}

// WorldId returns the owning world's identity.
func (c *ChannelActor) WorldId() WorldId {
	return c.worldId
}

// Room looks up a registered room by id. The result must be type-asserted
// back to its concrete *RoomActor[S] by the caller.
func (c *ChannelActor) Room(id RoomId) (any, bool) {
	r, ok := c.rooms[id]
	return r, ok
}

// OnMessage handles RegisterRoom, RemoveRoom and ChannelAction.
func (c *ChannelActor) OnMessage(msg any, t clock.Ticks) {
	switch m := msg.(type) {
	case RegisterRoom:
		c.rooms[m.Id] = m.Room
	case RemoveRoom:
		delete(c.rooms, m.Id)
	case ChannelAction:
		c.deferred = append(c.deferred, m.Fn)
	default:
		slog.Warn("channel actor received unknown message", "channel", c.Name(), "type", msg)
	}
}

// OnTickCore runs every deferred ChannelAction queued this tick, then
// clears the queue.
func (c *ChannelActor) OnTickCore(t clock.Ticks) {
	for _, fn := range c.deferred {
		fn()
	}
	c.deferred = c.deferred[:0]
}
