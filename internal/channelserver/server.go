// Package channelserver implements the channel listener set: one TCP
// listener per configured channel, each backed by a topology.ChannelActor
// and a single default room, consuming migration tickets issued by the
// login server and handing each accepted connection's session to the
// room actor.
package channelserver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelnet/shroomd/internal/actor"
	"github.com/kestrelnet/shroomd/internal/clock"
	"github.com/kestrelnet/shroomd/internal/config"
	"github.com/kestrelnet/shroomd/internal/conn"
	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/pump"
	"github.com/kestrelnet/shroomd/internal/roundkey"
	"github.com/kestrelnet/shroomd/internal/session"
	"github.com/kestrelnet/shroomd/internal/topology"
)

const protocolVersion = roundkey.ShroomVersion(1)

// defaultMailboxCapacity bounds every actor mailbox this package creates.
const defaultMailboxCapacity = 256

// defaultRoomId is the single room each channel hosts. DESIGN.md's
// channel-server wiring stops at one default room per channel; nothing
// in this package precludes a future caller from registering more rooms
// with the same channel actor.
var defaultRoomId = topology.RoomId{InstanceId: 0, MapId: 0}

// Room is the concrete room type this server drives: sessions wrapping
// *session.Session satisfy topology.Session directly.
type Room = topology.RoomActor[*session.Session]

// channelListener bundles one listener with the actor topology it feeds.
type channelListener struct {
	id       topology.ChannelId
	actor    *topology.ChannelActor
	room     *Room
	listener net.Listener
	dispose  func()
	roomDone func()
}

// Server runs the channel listener set and the tick scheduler that
// drives the world/channel/room actor hierarchy.
type Server struct {
	cfg      config.ChannelServer
	sessions *session.Manager

	clk   *clock.Clock
	sched *actor.Scheduler
	world *topology.WorldActor

	channels []*channelListener
}

// NewServer builds a channel server. The tick scheduler is constructed
// but not started until Run.
func NewServer(cfg config.ChannelServer, sessions *session.Manager) (*Server, error) {
	clk := clock.New()
	interval := time.Duration(cfg.TickIntervalMs) * time.Millisecond

	sched, err := actor.NewScheduler(clk, interval)
	if err != nil {
		return nil, fmt.Errorf("building scheduler: %w", err)
	}

	world := topology.NewWorldActor(topology.WorldId(1), "world", defaultMailboxCapacity)
	sched.Register(world)

	return &Server{
		cfg:      cfg,
		sessions: sessions,
		clk:      clk,
		sched:    sched,
		world:    world,
	}, nil
}

// Run binds cfg.Channels listeners starting at cfg.ChannelPortStart, then
// runs the tick scheduler and every listener's accept loop until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	for i := 0; i < s.cfg.Channels; i++ {
		if err := s.openChannel(i); err != nil {
			s.closeChannels()
			return err
		}
	}
	defer s.disposeChannels()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.sched.Run(ctx)
	})
	for _, ch := range s.channels {
		ch := ch
		g.Go(func() error {
			return s.serveChannel(ctx, ch)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		s.closeChannels()
		return nil
	})

	return g.Wait()
}

func (s *Server) openChannel(index int) error {
	id := topology.ChannelId(index + 1)
	port := s.cfg.ChannelPortStart + index
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	chActor, disposeChannel := topology.CreateChannel(s.sched, s.world, id, fmt.Sprintf("channel-%d", id), defaultMailboxCapacity)
	room, disposeRoom := topology.CreateRoom[*session.Session](s.sched, chActor, defaultRoomId, fmt.Sprintf("channel-%d-room-0", id), defaultMailboxCapacity)

	s.channels = append(s.channels, &channelListener{
		id:       id,
		actor:    chActor,
		room:     room,
		listener: ln,
		dispose:  disposeChannel,
		roomDone: disposeRoom,
	})
	slog.Info("channel listening", "channel", id, "address", ln.Addr())
	return nil
}

func (s *Server) closeChannels() {
	for _, ch := range s.channels {
		ch.listener.Close()
	}
}

// disposeChannels tears down every room and channel actor registered
// with the scheduler. Called once Run's accept loops have stopped.
func (s *Server) disposeChannels() {
	for _, ch := range s.channels {
		ch.roomDone()
		ch.dispose()
	}
}

func (s *Server) serveChannel(ctx context.Context, ch *channelListener) error {
	for {
		netConn, err := ch.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				slog.Error("channel accept failed", "channel", ch.id, "error", err)
				continue
			}
		}
		go s.handleConnection(ctx, ch, netConn)
	}
}

func (s *Server) handleConnection(ctx context.Context, ch *channelListener, netConn net.Conn) {
	remote := netConn.RemoteAddr().String()

	hs := packet.Handshake{
		Version:    protocolVersion,
		SubVersion: "1",
		SendKey:    roundkey.RoundKey(rand.Uint32()),
		RecvKey:    roundkey.RoundKey(rand.Uint32()),
		Locale:     1,
	}

	fc, err := conn.AcceptServer(netConn, hs)
	if err != nil {
		slog.Warn("channel handshake failed", "remote", remote, "error", err)
		netConn.Close()
		return
	}

	pkt, err := fc.ReadPacket()
	if err != nil {
		slog.Warn("migration request read failed", "remote", remote, "error", err)
		fc.Close()
		return
	}
	req, err := DecodeMigrationRequest(packet.NewReader(pkt))
	_ = pkt.Dispose()
	if err != nil {
		slog.Warn("migration request decode failed", "remote", remote, "error", err)
		fc.Close()
		return
	}

	ticket, err := s.sessions.TryConsumeTicket(req.ClientSessionId, remote)
	if err != nil {
		slog.Warn("migration ticket rejected", "remote", remote, "error", err)
		fc.Close()
		return
	}
	if ticket.AccountId != req.AccountId || ticket.CharacterId != req.CharacterId {
		slog.Warn("migration ticket identity mismatch", "remote", remote)
		fc.Close()
		return
	}

	character, err := s.sessions.LoadCharacter(ctx, ticket.CharacterId)
	if err != nil {
		slog.Warn("migration character load failed", "remote", remote, "error", err)
		fc.Close()
		return
	}

	sessionId := s.sessions.NextSessionID()
	p := pump.New(fc, defaultMailboxCapacity, defaultMailboxCapacity)
	sessCtx, cancel := context.WithCancel(ctx)

	sess, err := s.sessions.CreatePlayerSession(sessionId, p, cancel, ticket.AccountId, character)
	if err != nil {
		slog.Warn("player session creation failed", "remote", remote, "error", err)
		cancel()
		fc.Close()
		return
	}

	go p.Run(sessCtx)

	ch.room.Mailbox().Post(topology.AddSession[*session.Session]{Session: sess})
	slog.Info("session migrated in", "channel", ch.id, "session_id", sessionId, "account_id", ticket.AccountId)

	<-p.Done()

	ch.room.Mailbox().Post(topology.RemoveSession{SessionId: sessionId})
	_ = sess.Dispose()
	s.sessions.NotifyClosed(sessionId)
	slog.Info("session migrated out", "channel", ch.id, "session_id", sessionId)
}
