package session

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/kestrelnet/shroomd/internal/clock"
	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/pump"
)

// ErrAlreadyDisposed is returned by Dispose when called more than once.
var ErrAlreadyDisposed = errors.New("session: already disposed")

// Session holds a connection pump, a game-logic object, its session id,
// and a transient slow-consumer flag. It is exclusively owned by exactly
// one room actor once registered.
type Session struct {
	sessionId uint32
	pump      *pump.Pump
	logic     PlayerSession
	cancel    context.CancelFunc

	slow     bool
	disposed atomic.Bool
}

// New wraps pump p and logic under sessionId. cancel tears down the pump
// when the session is disposed.
func New(sessionId uint32, p *pump.Pump, logic PlayerSession, cancel context.CancelFunc) *Session {
	return &Session{sessionId: sessionId, pump: p, logic: logic, cancel: cancel}
}

// SessionID returns the session's stable identifier.
func (s *Session) SessionID() uint32 {
	return s.sessionId
}

// Tick drains every inbound packet currently queued, handing each to the
// logic object through a fresh reader and disposing it afterward, then
// runs the logic object's own OnTick.
func (s *Session) Tick(t clock.Ticks) {
drain:
	for {
		select {
		case pkt := <-s.pump.Inbound():
			r := packet.NewReader(pkt)
			s.logic.OnPacket(r, t)
			_ = pkt.Dispose()
		default:
			break drain
		}
	}
	s.logic.OnTick(t)
}

// TickEnd fires OnSlowConsumer if the outbound queue was observed full
// during the tick just finished, then always fires OnTickEnd.
func (s *Session) TickEnd(t clock.Ticks) {
	if s.slow {
		s.logic.OnSlowConsumer(t)
		s.slow = false
	}
	s.logic.OnTickEnd(t)
}

// TrySend pushes pkt to the outbound queue without blocking. On failure
// it marks the session slow for the next TickEnd and returns false.
func (s *Session) TrySend(pkt *packet.Packet) bool {
	if s.pump.TrySend(pkt) {
		s.logic.OnSendSucceeded()
		return true
	}
	s.slow = true
	return false
}

// SendAsync pushes pkt to the outbound queue, blocking until there is
// room or ctx is cancelled.
func (s *Session) SendAsync(ctx context.Context, pkt *packet.Packet) error {
	if err := s.pump.Send(ctx, pkt); err != nil {
		return err
	}
	s.logic.OnSendSucceeded()
	return nil
}

// Dispose tears down the underlying pump. Safe to call exactly once;
// later calls return ErrAlreadyDisposed.
func (s *Session) Dispose() error {
	if !s.disposed.CompareAndSwap(false, true) {
		return ErrAlreadyDisposed
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
