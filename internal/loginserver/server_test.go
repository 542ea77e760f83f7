package loginserver

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kestrelnet/shroomd/internal/charstore"
	"github.com/kestrelnet/shroomd/internal/conn"
	"github.com/kestrelnet/shroomd/internal/config"
	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/session"
	"github.com/kestrelnet/shroomd/internal/topology"
)

func newTestServer(t *testing.T, cfg config.LoginServer) *Server {
	t.Helper()
	store, err := charstore.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	factory := func(sessionId uint32, accountId topology.AccountId, character charstore.Character) session.PlayerSession {
		return nil
	}
	mgr := session.NewManager(store, factory)
	return NewServer(cfg, mgr, "127.0.0.1:9000")
}

func dialLogin(t *testing.T, ln net.Listener) *conn.FramedConnection {
	t.Helper()
	netConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { netConn.Close() })
	fc, _, err := conn.DialClient(netConn)
	require.NoError(t, err)
	return fc
}

func sendLoginRequest(t *testing.T, fc *conn.FramedConnection, username string) {
	t.Helper()
	w := packet.NewWriter(32)
	w.WriteString(username)
	pkt := w.Detach()
	require.NoError(t, fc.WritePacket(pkt.Bytes()))
	require.NoError(t, pkt.Dispose())
}

func readTicketResponse(t *testing.T, fc *conn.FramedConnection) TicketResponse {
	t.Helper()
	pkt, err := fc.ReadPacket()
	require.NoError(t, err)
	defer pkt.Dispose()

	r := packet.NewReader(pkt)
	success, err := r.ReadBool()
	require.NoError(t, err)
	if !success {
		reason, err := r.ReadString()
		require.NoError(t, err)
		return TicketResponse{Success: false, Reason: reason}
	}
	sid, err := r.ReadUint64()
	require.NoError(t, err)
	addr, err := r.ReadString()
	require.NoError(t, err)
	return TicketResponse{Success: true, ClientSessionId: sid, ChannelAddress: addr}
}

func TestServerIssuesTicketForNamedUser(t *testing.T) {
	cfg := config.DefaultLoginServer()
	srv := newTestServer(t, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx, ln)

	fc := dialLogin(t, ln)
	sendLoginRequest(t, fc, "alice")

	resp := readTicketResponse(t, fc)
	require.True(t, resp.Success)
	require.NotZero(t, resp.ClientSessionId)
	require.Equal(t, "127.0.0.1:9000", resp.ChannelAddress)
}

func TestServerIssuesTicketForGuestWhenAllowed(t *testing.T) {
	cfg := config.DefaultLoginServer()
	cfg.AllowGuestAccounts = true
	srv := newTestServer(t, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx, ln)

	fc := dialLogin(t, ln)
	sendLoginRequest(t, fc, "")

	resp := readTicketResponse(t, fc)
	require.True(t, resp.Success)
}

func TestServerRejectsGuestWhenDisallowed(t *testing.T) {
	cfg := config.DefaultLoginServer()
	cfg.AllowGuestAccounts = false
	srv := newTestServer(t, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx, ln)

	fc := dialLogin(t, ln)
	sendLoginRequest(t, fc, "")

	resp := readTicketResponse(t, fc)
	require.False(t, resp.Success)
}

func TestServerTicketIsRedeemableByManager(t *testing.T) {
	cfg := config.DefaultLoginServer()
	store, err := charstore.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	factory := func(sessionId uint32, accountId topology.AccountId, character charstore.Character) session.PlayerSession {
		return nil
	}
	mgr := session.NewManager(store, factory)
	srv := NewServer(cfg, mgr, "127.0.0.1:9000")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx, ln)

	netConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { netConn.Close() })
	fc, _, err := conn.DialClient(netConn)
	require.NoError(t, err)

	sendLoginRequest(t, fc, "bob")
	resp := readTicketResponse(t, fc)
	require.True(t, resp.Success)

	got, err := mgr.TryConsumeTicket(resp.ClientSessionId, netConn.LocalAddr().String())
	require.NoError(t, err)
	require.NotZero(t, got.AccountId)
}

func TestFloodGuardBlocksBurstThenRecovers(t *testing.T) {
	cfg := config.DefaultLoginServer()
	cfg.FloodProtection = true
	cfg.FastConnectionLimit = 3
	cfg.FastConnectionTime = 10
	cfg.NormalConnectionTime = 5

	guard := NewFloodGuard(cfg)
	remote := "203.0.113.5:1111"

	require.True(t, guard.Allow(remote))
	guard.Release(remote)
	require.True(t, guard.Allow(remote))
	guard.Release(remote)
	require.True(t, guard.Allow(remote))
	guard.Release(remote)
	require.False(t, guard.Allow(remote))

	time.Sleep(40 * time.Millisecond)
	require.True(t, guard.Allow(remote))
}

func TestFloodGuardEnforcesMaxConcurrentPerIP(t *testing.T) {
	cfg := config.DefaultLoginServer()
	cfg.FloodProtection = true
	cfg.MaxConnectionPerIP = 1
	cfg.FastConnectionLimit = 100

	guard := NewFloodGuard(cfg)
	remote := "203.0.113.6:2222"

	require.True(t, guard.Allow(remote))
	require.False(t, guard.Allow(remote))
	guard.Release(remote)
	require.True(t, guard.Allow(remote))
}

func TestFloodGuardDisabledAlwaysAllows(t *testing.T) {
	cfg := config.DefaultLoginServer()
	cfg.FloodProtection = false
	cfg.MaxConnectionPerIP = 1

	guard := NewFloodGuard(cfg)
	remote := "203.0.113.7:3333"

	require.True(t, guard.Allow(remote))
	require.True(t, guard.Allow(remote))
}
