package session

import (
	"math/rand/v2"
	"net"
	"time"

	"github.com/kestrelnet/shroomd/internal/topology"
)

// Ticket is a single-use, IP-bound migration ticket handed from the login
// server to the client, and redeemed by the channel server.
type Ticket struct {
	ClientSessionId uint64
	AccountId       topology.AccountId
	CharacterId     topology.CharacterId
	RemoteEndpoint  string
	ExpiresAt       time.Time
}

func newClientSessionId() uint64 {
	for {
		if v := rand.Uint64(); v != 0 {
			return v
		}
	}
}

func endpointIP(endpoint string) string {
	host, _, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint
	}
	return host
}
