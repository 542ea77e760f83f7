package channelserver

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kestrelnet/shroomd/internal/charstore"
	"github.com/kestrelnet/shroomd/internal/clock"
	"github.com/kestrelnet/shroomd/internal/config"
	"github.com/kestrelnet/shroomd/internal/conn"
	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/session"
	"github.com/kestrelnet/shroomd/internal/topology"
)

type noopLogic struct{}

func (noopLogic) OnPacket(*packet.Reader, clock.Ticks) {}
func (noopLogic) OnTick(clock.Ticks)                    {}
func (noopLogic) OnTickEnd(clock.Ticks)                 {}
func (noopLogic) OnSlowConsumer(clock.Ticks)            {}
func (noopLogic) OnSendSucceeded()                      {}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	store, err := charstore.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	factory := func(sessionId uint32, accountId topology.AccountId, character charstore.Character) session.PlayerSession {
		return noopLogic{}
	}
	return session.NewManager(store, factory)
}

func TestDecodeMigrationRequestRejectsShortPacket(t *testing.T) {
	w := packet.NewWriter(4)
	w.WriteUint32(1)
	pkt := w.Detach()
	defer pkt.Dispose()

	_, err := DecodeMigrationRequest(packet.NewReader(pkt))
	require.Error(t, err)
}

func TestDecodeMigrationRequestParsesFields(t *testing.T) {
	w := packet.NewWriter(16)
	w.WriteUint64(0xABCD)
	w.WriteInt32(7)
	w.WriteInt32(9)
	pkt := w.Detach()
	defer pkt.Dispose()

	req, err := DecodeMigrationRequest(packet.NewReader(pkt))
	require.NoError(t, err)
	require.Equal(t, uint64(0xABCD), req.ClientSessionId)
	require.Equal(t, topology.AccountId(7), req.AccountId)
	require.Equal(t, topology.CharacterId(9), req.CharacterId)
}

func TestChannelServerMigrationEndToEnd(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	account, err := mgr.GetOrCreateAccount(ctx, "carol")
	require.NoError(t, err)
	character, err := mgr.EnsureDefaultCharacter(ctx, account.Id)
	require.NoError(t, err)

	cfg := config.DefaultChannelServer()
	cfg.BindAddress = "127.0.0.1"
	cfg.ChannelPortStart = 0
	cfg.Channels = 1
	cfg.TickIntervalMs = 20

	srv, err := NewServer(cfg, mgr)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(runCtx) }()

	require.Eventually(t, func() bool {
		return len(srv.channels) == 1
	}, time.Second, 5*time.Millisecond)

	ch := srv.channels[0]
	listenAddr := ch.listener.Addr().String()

	ticket := mgr.CreateTicket(account.Id, character.Id, "127.0.0.1:0", time.Minute)

	netConn, err := net.Dial("tcp", listenAddr)
	require.NoError(t, err)
	defer netConn.Close()

	fc, _, err := conn.DialClient(netConn)
	require.NoError(t, err)

	w := packet.NewWriter(16)
	w.WriteUint64(ticket.ClientSessionId)
	w.WriteInt32(int32(account.Id))
	w.WriteInt32(int32(character.Id))
	pkt := w.Detach()
	require.NoError(t, fc.WritePacket(pkt.Bytes()))
	require.NoError(t, pkt.Dispose())

	require.Eventually(t, func() bool {
		return ch.room.SessionCount() == 1
	}, time.Second, 5*time.Millisecond)

	netConn.Close()

	require.Eventually(t, func() bool {
		return ch.room.SessionCount() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-runErr:
	case <-time.After(time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestChannelServerRejectsUnknownTicket(t *testing.T) {
	mgr := newTestManager(t)

	cfg := config.DefaultChannelServer()
	cfg.BindAddress = "127.0.0.1"
	cfg.ChannelPortStart = 0
	cfg.Channels = 1
	cfg.TickIntervalMs = 20

	srv, err := NewServer(cfg, mgr)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(runCtx)

	require.Eventually(t, func() bool {
		return len(srv.channels) == 1
	}, time.Second, 5*time.Millisecond)

	ch := srv.channels[0]
	netConn, err := net.Dial("tcp", ch.listener.Addr().String())
	require.NoError(t, err)
	defer netConn.Close()

	fc, _, err := conn.DialClient(netConn)
	require.NoError(t, err)

	w := packet.NewWriter(16)
	w.WriteUint64(0xDEADBEEF)
	w.WriteInt32(1)
	w.WriteInt32(2)
	pkt := w.Detach()
	require.NoError(t, fc.WritePacket(pkt.Bytes()))
	require.NoError(t, pkt.Dispose())

	require.Never(t, func() bool {
		return ch.room.SessionCount() > 0
	}, 200*time.Millisecond, 10*time.Millisecond)
}
