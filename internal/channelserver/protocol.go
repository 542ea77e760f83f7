package channelserver

import (
	"fmt"

	"github.com/kestrelnet/shroomd/internal/packet"
	"github.com/kestrelnet/shroomd/internal/topology"
)

// migrationRequestLen is the minimum byte length of the channel-migration
// handshake: u64 clientSessionId, i32 accountId, i32 characterId.
const migrationRequestLen = 8 + 4 + 4

// MigrationRequest is the first packet a client sends on a channel
// connection, carrying the ticket id and the claimed identity it was
// issued for.
type MigrationRequest struct {
	ClientSessionId uint64
	AccountId       topology.AccountId
	CharacterId     topology.CharacterId
}

// DecodeMigrationRequest parses a MigrationRequest, rejecting anything
// shorter than migrationRequestLen bytes.
func DecodeMigrationRequest(r *packet.Reader) (MigrationRequest, error) {
	if r.Remaining() < migrationRequestLen {
		return MigrationRequest{}, fmt.Errorf("migration request too short: %d bytes", r.Remaining())
	}
	sessionId, err := r.ReadUint64()
	if err != nil {
		return MigrationRequest{}, fmt.Errorf("reading clientSessionId: %w", err)
	}
	accountId, err := r.ReadInt32()
	if err != nil {
		return MigrationRequest{}, fmt.Errorf("reading accountId: %w", err)
	}
	characterId, err := r.ReadInt32()
	if err != nil {
		return MigrationRequest{}, fmt.Errorf("reading characterId: %w", err)
	}
	return MigrationRequest{
		ClientSessionId: sessionId,
		AccountId:       topology.AccountId(accountId),
		CharacterId:     topology.CharacterId(characterId),
	}, nil
}
