// Package topology implements the world/channel/room actor hierarchy:
// opaque world and channel identities, a generic room actor parameterised
// over the session type it hosts, and the timer that binds a delay queue
// to a room.
package topology

import "fmt"

// WorldId, ChannelId, MapId, AccountId and CharacterId are opaque 32-bit
// identifiers with no arithmetic beyond equality.
type (
	WorldId     uint32
	ChannelId   uint32
	MapId       uint32
	AccountId   uint32
	CharacterId uint32
)

// RoomId identifies one room as an instance of a map.
type RoomId struct {
	InstanceId uint32
	MapId      MapId
}

// String renders a RoomId for logging.
func (r RoomId) String() string {
	return fmt.Sprintf("room(instance=%d,map=%d)", r.InstanceId, r.MapId)
}
