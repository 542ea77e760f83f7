// Package loginserver implements the login listener: it accepts a
// connection, performs the handshake, resolves or provisions an account
// and default character, and issues a migration ticket for the client to
// redeem against a channel server.
package loginserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kestrelnet/shroomd/internal/charstore"
	"github.com/kestrelnet/shroomd/internal/config"
	"github.com/kestrelnet/shroomd/internal/conn"
	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/roundkey"
	"github.com/kestrelnet/shroomd/internal/session"
)

const protocolVersion = roundkey.ShroomVersion(1)

// Server is the login listener.
type Server struct {
	cfg            config.LoginServer
	sessions       *session.Manager
	channelAddress string
	guard          *FloodGuard

	listener net.Listener
}

// NewServer builds a login server bound to channelAddress, the address
// handed to clients for the next migration step.
func NewServer(cfg config.LoginServer, sessions *session.Manager, channelAddress string) *Server {
	return &Server{
		cfg:            cfg,
		sessions:       sessions,
		channelAddress: channelAddress,
		guard:          NewFloodGuard(cfg),
	}
}

// Addr returns the listener's address, or nil before Run has bound one.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds cfg.BindAddress:cfg.LoginPort and serves until ctx is
// cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.LoginPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.listener = ln
	slog.Info("login server listening", "address", ln.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	for {
		netConn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return g.Wait()
			default:
				slog.Error("login accept failed", "error", err)
				continue
			}
		}
		remote := netConn.RemoteAddr().String()
		if !s.guard.Allow(remote) {
			slog.Warn("login connection rejected by flood guard", "remote", remote)
			netConn.Close()
			continue
		}
		g.Go(func() error {
			defer s.guard.Release(remote)
			s.handleConnection(ctx, netConn)
			return nil
		})
	}
}

func (s *Server) handleConnection(ctx context.Context, netConn net.Conn) {
	defer netConn.Close()
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
		slog.Warn("login handshake failed", "remote", remote, "error", err)
		return
	}

	pkt, err := fc.ReadPacket()
	if err != nil {
		slog.Warn("login request read failed", "remote", remote, "error", err)
		return
	}
	req, err := DecodeLoginRequest(packet.NewReader(pkt))
	_ = pkt.Dispose()
	if err != nil {
		slog.Warn("login request decode failed", "remote", remote, "error", err)
		s.reject(fc, "malformed login request")
		return
	}

	resp, err := s.authenticate(ctx, req, remote)
	if err != nil {
		slog.Warn("login authentication failed", "remote", remote, "username", req.Username, "error", err)
		s.reject(fc, "authentication failed")
		return
	}

	w := packet.NewWriter(32)
	resp.Encode(w)
	out := w.Detach()
	if err := fc.WritePacket(out.Bytes()); err != nil {
		slog.Warn("login response write failed", "remote", remote, "error", err)
	}
	_ = out.Dispose()

	slog.Info("migration ticket issued",
		"remote", remote,
		"client_session_id", resp.ClientSessionId,
		"ticket_id", uuid.New().String(),
	)
}

var errGuestAccountsDisabled = errors.New("loginserver: guest accounts disabled")

func (s *Server) authenticate(ctx context.Context, req LoginRequest, remote string) (TicketResponse, error) {
	account, err := s.resolveAccount(ctx, req)
	if err != nil {
		return TicketResponse{}, err
	}

	character, err := s.sessions.EnsureDefaultCharacter(ctx, account.Id)
	if err != nil {
		return TicketResponse{}, fmt.Errorf("ensuring default character: %w", err)
	}

	ticket := s.sessions.CreateTicket(account.Id, character.Id, remote, s.cfg.MigrationTicketTTL)
	return TicketResponse{
		Success:         true,
		ClientSessionId: ticket.ClientSessionId,
		ChannelAddress:  s.channelAddress,
	}, nil
}

func (s *Server) resolveAccount(ctx context.Context, req LoginRequest) (charstore.Account, error) {
	if req.Username == "" {
		if !s.cfg.AllowGuestAccounts {
			return charstore.Account{}, errGuestAccountsDisabled
		}
		return s.sessions.CreateGuestAccount(ctx)
	}
	return s.sessions.GetOrCreateAccount(ctx, req.Username)
}

func (s *Server) reject(fc *conn.FramedConnection, reason string) {
	w := packet.NewWriter(32)
	TicketResponse{Success: false, Reason: reason}.Encode(w)
	out := w.Detach()
	_ = fc.WritePacket(out.Bytes())
	_ = out.Dispose()
}
