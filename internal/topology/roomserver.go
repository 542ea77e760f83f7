package topology

import "github.com/kestrelnet/shroomd/internal/actor"

// CreateChannel registers a new channel actor with sched and notifies its
// parent world. The returned dispose closure posts RemoveChannel to the
// world and unregisters the actor from the scheduler; call it exactly
// once when the channel is torn down.
func CreateChannel(sched *actor.Scheduler, world *WorldActor, id ChannelId, name string, mailboxCapacity int) (*ChannelActor, func()) {
	ch := NewChannelActor(id, world.Id(), name, mailboxCapacity)
	unregister := sched.Register(ch)
	world.Mailbox().Post(RegisterChannel{Id: id, Channel: ch})

	dispose := func() {
		world.Mailbox().Post(RemoveChannel{Id: id})
		unregister()
	}
	return ch, dispose
}

// CreateRoom registers a new room actor with sched and notifies its
// parent channel. The returned dispose closure posts RemoveRoom to the
// channel and unregisters the actor from the scheduler; call it exactly
// once when the room is torn down.
func CreateRoom[S Session](sched *actor.Scheduler, channel *ChannelActor, id RoomId, name string, mailboxCapacity int) (*RoomActor[S], func()) {
	room := NewRoomActor[S](id, channel.Id(), name, mailboxCapacity)
	unregister := sched.Register(room)
	channel.Mailbox().Post(RegisterRoom{Id: id, Room: room})

	dispose := func() {
		channel.Mailbox().Post(RemoveRoom{Id: id})
		unregister()
	}
	return room, dispose
}
