package topology

import (
	"log/slog"

	"github.com/kestrelnet/shroomd/internal/actor"
	"github.com/kestrelnet/shroomd/internal/clock"
)

// AddSession asks a room to adopt a session. Duplicate session ids are
// ignored.
type AddSession[S Session] struct {
	Session S
}

// RemoveSession asks a room to drop and dispose a session.
type RemoveSession struct {
	SessionId uint32
}

// RoomAction is a deferred closure run at the room's next OnTickCore. It
// is also the payload a RoomTimer posts when a delayed action comes due.
type RoomAction struct {
	Fn func()
}

// RoomActor drives every session registered in one room through its tick
// and tick-end hooks, in registration order.
type RoomActor[S Session] struct {
	actor.Base

	id        RoomId
	channelId ChannelId
	order     []uint32
	byId      map[uint32]S
	deferred  []func()
}

// NewRoomActor creates an empty room actor owned by channelId.
func NewRoomActor[S Session](id RoomId, channelId ChannelId, name string, mailboxCapacity int) *RoomActor[S] {
	return &RoomActor[S]{
		Base:      actor.NewBase(name, mailboxCapacity),
		id:        id,
		channelId: channelId,
		byId:      make(map[uint32]S),
	}
}

// Id returns the room's identity.
func (r *RoomActor[S]) Id() RoomId {
	return r.id
}

// ChannelId returns the owning channel's identity.
func (r *RoomActor[S]) ChannelId() ChannelId {
	return r.channelId
}

// SessionCount returns the number of sessions currently registered.
func (r *RoomActor[S]) SessionCount() int {
	return len(r.order)
}

// OnMessage handles AddSession, RemoveSession and RoomAction.
func (r *RoomActor[S]) OnMessage(msg any, t clock.Ticks) {
	switch m := msg.(type) {
	case AddSession[S]:
		r.addSession(m.Session)
	case RemoveSession:
		r.removeSession(m.SessionId)
	case RoomAction:
		r.deferred = append(r.deferred, m.Fn)
	default:
		slog.Warn("room actor received unknown message", "room", r.Name(), "type", msg)
	}
}

func (r *RoomActor[S]) addSession(s S) {
	if _, exists := r.byId[s.SessionID()]; exists {
		return
	}
	r.byId[s.SessionID()] = s
	r.order = append(r.order, s.SessionID())
}

func (r *RoomActor[S]) removeSession(id uint32) {
	s, exists := r.byId[id]
	if !exists {
		return
	}
	delete(r.byId, id)
	for i, cur := range r.order {
		if cur == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if err := s.Dispose(); err != nil {
		slog.Warn("session dispose failed on room removal", "room", r.Name(), "session", id, "error", err)
	}
}

// OnTickCore runs deferred actions, then drives every session's Tick in
// registration order.
func (r *RoomActor[S]) OnTickCore(t clock.Ticks) {
	for _, fn := range r.deferred {
		fn()
	}
	r.deferred = r.deferred[:0]

	for _, id := range r.order {
		r.byId[id].Tick(t)
	}
}

// OnTickEnd drives every session's TickEnd in registration order.
func (r *RoomActor[S]) OnTickEnd(t clock.Ticks) {
	for _, id := range r.order {
		r.byId[id].TickEnd(t)
	}
}
