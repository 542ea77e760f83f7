package channelserver

import (
	"log/slog"

	"github.com/kestrelnet/shroomd/internal/charstore"
	"github.com/kestrelnet/shroomd/internal/clock"
	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/session"
	"github.com/kestrelnet/shroomd/internal/topology"
)

// stubLogic is the PlayerSession used when no opcode-handling logic has
// been wired in: it observes packets and tick hooks without acting on
// them. Gameplay opcode handlers are out of scope for this repository;
// stubLogic exists so the session/room/scheduler pipeline has something
// concrete to drive end to end.
type stubLogic struct {
	sessionId   uint32
	accountId   topology.AccountId
	characterId topology.CharacterId
}

// DefaultFactory builds a stubLogic for every new player session.
func DefaultFactory(sessionId uint32, accountId topology.AccountId, character charstore.Character) session.PlayerSession {
	return &stubLogic{sessionId: sessionId, accountId: accountId, characterId: character.Id}
}

func (l *stubLogic) OnPacket(r *packet.Reader, t clock.Ticks) {
	slog.Debug("packet received", "session", l.sessionId, "bytes", r.Remaining(), "tick", uint64(t))
}

func (l *stubLogic) OnTick(t clock.Ticks) {}

func (l *stubLogic) OnTickEnd(t clock.Ticks) {}

func (l *stubLogic) OnSlowConsumer(t clock.Ticks) {
	slog.Warn("session slow consumer", "session", l.sessionId, "tick", uint64(t))
}

func (l *stubLogic) OnSendSucceeded() {}
