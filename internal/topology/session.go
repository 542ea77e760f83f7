package topology

import "github.com/kestrelnet/shroomd/internal/clock"

// Session is the subset of session behavior a room actor drives directly.
// The concrete session.Session type implements this.
type Session interface {
	SessionID() uint32
	Tick(t clock.Ticks)
	TickEnd(t clock.Ticks)
	Dispose() error
}
