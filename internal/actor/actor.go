package actor

import "github.com/kestrelnet/shroomd/internal/clock"

// Actor is driven serially by the Scheduler: no lock is taken around its
// hooks because the scheduler guarantees single-threaded access to an
// actor's state between consecutive tick calls.
type Actor interface {
	// Name is a stable identifier used for registration and logging.
	Name() string
	// Mailbox returns the actor's bounded inbox.
	Mailbox() *Mailbox
	// OnMessage handles one drained mailbox message during tick T, before
	// OnTickCore runs.
	OnMessage(msg any, t clock.Ticks)
	// OnTickCore runs once per tick, after the mailbox has been drained.
	OnTickCore(t clock.Ticks)
	// OnTickEnd runs once per tick, after every actor's OnTickCore in the
	// same snapshot has run.
	OnTickEnd(t clock.Ticks)
}

// Base provides the name and mailbox plumbing common to every actor.
// Embed it and override OnMessage/OnTickCore/OnTickEnd as needed; the
// embedded OnTickEnd is a no-op default.
type Base struct {
	name    string
	mailbox *Mailbox
}

// NewBase constructs the embeddable actor plumbing.
func NewBase(name string, mailboxCapacity int) Base {
	return Base{name: name, mailbox: NewMailbox(mailboxCapacity)}
}

// Name returns the actor's stable name.
func (b *Base) Name() string {
	return b.name
}

// Mailbox returns the actor's bounded inbox.
func (b *Base) Mailbox() *Mailbox {
	return b.mailbox
}

// OnTickEnd is a no-op default; embedding types may override it.
func (b *Base) OnTickEnd(clock.Ticks) {}
