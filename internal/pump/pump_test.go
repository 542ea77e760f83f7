package pump

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/kestrelnet/shroomd/internal/conn"
	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/roundkey"
)

func pipePair(t *testing.T) (*conn.FramedConnection, *conn.FramedConnection) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { serverConn.Close(); clientConn.Close() })

	hs := packet.Handshake{
		Version:    1,
		SubVersion: "1",
		SendKey:    roundkey.RoundKey(0xAABBCCDD),
		RecvKey:    roundkey.RoundKey(0x11223344),
		Locale:     1,
	}

	serverDone := make(chan *conn.FramedConnection, 1)
	go func() {
		fc, _ := conn.AcceptServer(serverConn, hs)
		serverDone <- fc
	}()
	clientFC, _, err := conn.DialClient(clientConn)
	require.NoError(t, err)
	serverFC := <-serverDone
	require.NotNil(t, serverFC)
	return clientFC, serverFC
}

func TestPumpDeliversInboundPackets(t *testing.T) {
	clientFC, serverFC := pipePair(t)

	serverPump := New(serverFC, 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go serverPump.Run(ctx)

	w := packet.NewWriter(16)
	w.WriteString("ping")
	p := w.Detach()
	require.NoError(t, clientFC.WritePacket(p.Bytes()))
	require.NoError(t, p.Dispose())

	select {
	case got := <-serverPump.Inbound():
		r := packet.NewReader(got)
		s, err := r.ReadString()
		require.NoError(t, err)
		require.Equal(t, "ping", s)
		require.NoError(t, got.Dispose())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound packet")
	}
}

func TestPumpTrySendAndReceive(t *testing.T) {
	clientFC, serverFC := pipePair(t)

	serverPump := New(serverFC, 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go serverPump.Run(ctx)

	w := packet.NewWriter(16)
	w.WriteString("pong")
	p := w.Detach()
	require.True(t, serverPump.TrySend(p))

	got, err := clientFC.ReadPacket()
	require.NoError(t, err)
	r := packet.NewReader(got)
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "pong", s)
	require.NoError(t, got.Dispose())
}

func TestPumpTrySendFailsWhenOutboundFull(t *testing.T) {
	clientFC, serverFC := pipePair(t)
	_ = clientFC

	serverPump := New(serverFC, 4, 1)
	serverPump.outbound <- packet.Rent(2)

	w := packet.NewWriter(4)
	w.WriteString("x")
	overflow := w.Detach()
	ok := serverPump.TrySend(overflow)
	require.False(t, ok)
	require.NoError(t, overflow.Dispose())
}

func TestPumpDoneResolvesOnCancellation(t *testing.T) {
	_, serverFC := pipePair(t)

	serverPump := New(serverFC, 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	go serverPump.Run(ctx)

	cancel()

	select {
	case <-serverPump.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not complete after cancellation")
	}
}
