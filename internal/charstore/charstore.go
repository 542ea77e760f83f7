// Package charstore is the character-store façade the session manager
// uses to resolve accounts and characters: account lookup/creation,
// character loading, and guest-account provisioning. The backing storage
// is an external collaborator — Postgres in production, a flat file for
// local development.
package charstore

import (
	"context"
	"errors"
	"time"

	"github.com/kestrelnet/shroomd/internal/topology"
)

// ErrAccountNotFound is returned when an account lookup finds nothing.
var ErrAccountNotFound = errors.New("charstore: account not found")

// ErrCharacterNotFound is returned when a character lookup finds nothing.
var ErrCharacterNotFound = errors.New("charstore: character not found")

// Account is the domain record for a login account.
type Account struct {
	Id        topology.AccountId
	Username  string
	IsGuest   bool
	CreatedAt time.Time
}

// Character is the domain record for a playable character.
type Character struct {
	Id        topology.CharacterId
	AccountId topology.AccountId
	Name      string
	MapId     topology.MapId
	CreatedAt time.Time
}

// Store is the character-store façade the session manager depends on.
// Implementations return domain types only; no storage-specific error or
// type ever crosses this interface.
type Store interface {
	// GetOrCreateAccount returns the account for username, creating it
	// (auto-provisioning) if it does not already exist.
	GetOrCreateAccount(ctx context.Context, username string) (Account, error)
	// EnsureDefaultCharacter returns accountId's first character,
	// creating a default one if the account has none yet.
	EnsureDefaultCharacter(ctx context.Context, accountId topology.AccountId) (Character, error)
	// LoadCharacter loads one character by id. Returns
	// ErrCharacterNotFound if it does not exist.
	LoadCharacter(ctx context.Context, characterId topology.CharacterId) (Character, error)
	// GetCharacters lists every character belonging to accountId.
	GetCharacters(ctx context.Context, accountId topology.AccountId) ([]Character, error)
	// CreateGuestAccount provisions a throwaway guest account, for servers
	// running with guest access enabled. It creates no character.
	CreateGuestAccount(ctx context.Context) (Account, error)
}
