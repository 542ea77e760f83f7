package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrelnet/shroomd/internal/charstore"
	"github.com/kestrelnet/shroomd/internal/pump"
	"github.com/kestrelnet/shroomd/internal/topology"
)

// ErrTicketNotFound is returned when a ticket id has no matching entry.
var ErrTicketNotFound = errors.New("session: migration ticket not found")

// ErrTicketExpired is returned when a ticket is found but past its TTL.
var ErrTicketExpired = errors.New("session: migration ticket expired")

// ErrTicketEndpointMismatch is returned when the consuming endpoint's IP
// does not match the ticket's issuing endpoint.
var ErrTicketEndpointMismatch = errors.New("session: migration ticket endpoint mismatch")

const defaultTicketTTL = 30 * time.Second

// Factory constructs a PlayerSession's logic object for a newly
// authenticated character.
type Factory func(sessionId uint32, accountId topology.AccountId, character charstore.Character) PlayerSession

// Manager is the session manager: the active session registry, the
// character-store façade, the migration-ticket lifecycle, and the
// session factory.
type Manager struct {
	store   charstore.Store
	factory Factory

	sessions sync.Map // map[uint32]*Session
	tickets  sync.Map // map[uint64]Ticket

	nextSessionId atomic.Uint32
}

// NewManager creates a session manager backed by store, using factory to
// build PlayerSession logic objects.
func NewManager(store charstore.Store, factory Factory) *Manager {
	return &Manager{store: store, factory: factory}
}

// NextSessionID allocates the next sequential session id.
func (m *Manager) NextSessionID() uint32 {
	return m.nextSessionId.Add(1)
}

// --- Active session registry ---

// Add registers sess under its session id.
func (m *Manager) Add(sess *Session) {
	m.sessions.Store(sess.SessionID(), sess)
}

// Get returns the active session for id, if any.
func (m *Manager) Get(id uint32) (*Session, bool) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// NotifyClosed removes id from the active registry. Idempotent.
func (m *Manager) NotifyClosed(id uint32) {
	m.sessions.Delete(id)
}

// Count returns the number of currently active sessions.
func (m *Manager) Count() int {
	count := 0
	m.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// --- Character store façade ---

func (m *Manager) GetOrCreateAccount(ctx context.Context, username string) (charstore.Account, error) {
	return m.store.GetOrCreateAccount(ctx, username)
}

func (m *Manager) EnsureDefaultCharacter(ctx context.Context, accountId topology.AccountId) (charstore.Character, error) {
	return m.store.EnsureDefaultCharacter(ctx, accountId)
}

func (m *Manager) LoadCharacter(ctx context.Context, characterId topology.CharacterId) (charstore.Character, error) {
	return m.store.LoadCharacter(ctx, characterId)
}

func (m *Manager) GetCharacters(ctx context.Context, accountId topology.AccountId) ([]charstore.Character, error) {
	return m.store.GetCharacters(ctx, accountId)
}

func (m *Manager) CreateGuestAccount(ctx context.Context) (charstore.Account, error) {
	return m.store.CreateGuestAccount(ctx)
}

// --- Migration ticket lifecycle ---

// CreateTicket sweeps expired tickets, then issues a fresh single-use
// ticket for accountId/characterId bound to endpoint, with ttl applied
// (defaultTicketTTL if ttl <= 0).
func (m *Manager) CreateTicket(accountId topology.AccountId, characterId topology.CharacterId, endpoint string, ttl time.Duration) Ticket {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	m.sweepExpiredTickets()

	t := Ticket{
		ClientSessionId: newClientSessionId(),
		AccountId:       accountId,
		CharacterId:     characterId,
		RemoteEndpoint:  endpoint,
		ExpiresAt:       time.Now().Add(ttl),
	}
	m.tickets.Store(t.ClientSessionId, t)
	return t
}

// TryConsumeTicket atomically removes and returns the ticket for
// clientSessionId. Fails if the ticket is absent, expired, or if
// endpoint's IP differs from the ticket's issuing IP.
func (m *Manager) TryConsumeTicket(clientSessionId uint64, endpoint string) (Ticket, error) {
	v, ok := m.tickets.LoadAndDelete(clientSessionId)
	if !ok {
		return Ticket{}, ErrTicketNotFound
	}
	t := v.(Ticket)

	if time.Now().After(t.ExpiresAt) {
		return Ticket{}, ErrTicketExpired
	}
	if endpointIP(endpoint) != endpointIP(t.RemoteEndpoint) {
		return Ticket{}, ErrTicketEndpointMismatch
	}
	return t, nil
}

func (m *Manager) sweepExpiredTickets() {
	now := time.Now()
	m.tickets.Range(func(key, value any) bool {
		t := value.(Ticket)
		if now.After(t.ExpiresAt) {
			m.tickets.Delete(key)
		}
		return true
	})
}

// --- Session factory ---

// CreatePlayerSession constructs the logic object for character, wraps it
// and pump p into a Session under sessionId, registers it in the active
// registry, and returns it.
func (m *Manager) CreatePlayerSession(sessionId uint32, p *pump.Pump, cancel context.CancelFunc, accountId topology.AccountId, character charstore.Character) (*Session, error) {
	if m.factory == nil {
		return nil, fmt.Errorf("session: no PlayerSession factory configured")
	}
	logic := m.factory(sessionId, accountId, character)
	sess := New(sessionId, p, logic, cancel)
	m.Add(sess)
	return sess, nil
}
