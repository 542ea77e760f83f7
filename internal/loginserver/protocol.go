package loginserver

import (
	"fmt"

	"github.com/kestrelnet/shroomd/internal/packet"
)

// LoginRequest is the single client-sent message on the login connection:
// a username to resolve or auto-provision an account for. An empty
// username requests a guest account when the server allows it.
type LoginRequest struct {
	Username string
}

// DecodeLoginRequest reads a LoginRequest from r.
func DecodeLoginRequest(r *packet.Reader) (LoginRequest, error) {
	username, err := r.ReadString()
	if err != nil {
		return LoginRequest{}, fmt.Errorf("reading username: %w", err)
	}
	return LoginRequest{Username: username}, nil
}

// TicketResponse is the server's reply: a success flag followed either by
// the migration ticket id and channel-server address to dial next, or a
// failure reason.
type TicketResponse struct {
	Success         bool
	ClientSessionId uint64
	ChannelAddress  string
	Reason          string
}

// Encode writes the ticket response onto w.
func (t TicketResponse) Encode(w *packet.Writer) {
	w.WriteBool(t.Success)
	if t.Success {
		w.WriteUint64(t.ClientSessionId)
		w.WriteString(t.ChannelAddress)
		return
	}
	w.WriteString(t.Reason)
}
