// Package session implements the per-connection Session wrapper, the
// session manager's active registry and migration-ticket lifecycle, and
// the PlayerSession contract gameplay logic implements.
package session

import (
	"github.com/kestrelnet/shroomd/internal/clock"
	"github.com/kestrelnet/shroomd/internal/packet"
)

// PlayerSession is the game-logic object a Session drives. Concrete
// implementations live outside this package; none of its hooks are
// called concurrently with each other for the same session.
type PlayerSession interface {
	// OnPacket handles one inbound packet, read through r, during tick T.
	OnPacket(r *packet.Reader, t clock.Ticks)
	// OnTick runs once per tick after every pending inbound packet has
	// been handled.
	OnTick(t clock.Ticks)
	// OnTickEnd runs once per tick, after OnTick.
	OnTickEnd(t clock.Ticks)
	// OnSlowConsumer runs once when the outbound queue was observed full
	// during the tick just finished.
	OnSlowConsumer(t clock.Ticks)
	// OnSendSucceeded runs after an outbound packet was accepted by the pump.
	OnSendSucceeded()
}
