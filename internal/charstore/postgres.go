package charstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrelnet/shroomd/internal/topology"
)

// PostgresStore is the production Store backed by pgx, covering the
// two-table accounts/characters schema spec.md §6 names.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres using dsn and returns a Store.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to character store database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging character store database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Pool returns the underlying pgx pool.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) GetOrCreateAccount(ctx context.Context, username string) (Account, error) {
	acc, err := s.getAccount(ctx, username)
	if err == nil {
		return acc, nil
	}
	if err != ErrAccountNotFound {
		return Account{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO accounts (username, is_guest, created_at) VALUES ($1, false, $2)
		 ON CONFLICT (username) DO NOTHING`,
		username, time.Now(),
	)
	if err != nil {
		return Account{}, fmt.Errorf("creating account %q: %w", username, err)
	}
	return s.getAccount(ctx, username)
}

func (s *PostgresStore) getAccount(ctx context.Context, username string) (Account, error) {
	var acc Account
	var accId uint32
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, username, is_guest, created_at FROM accounts WHERE username = $1`,
		username,
	).Scan(&accId, &acc.Username, &acc.IsGuest, &acc.CreatedAt)
	if err == pgx.ErrNoRows {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("querying account %q: %w", username, err)
	}
	acc.Id = topology.AccountId(accId)
	return acc, nil
}

func (s *PostgresStore) EnsureDefaultCharacter(ctx context.Context, accountId topology.AccountId) (Character, error) {
	chars, err := s.GetCharacters(ctx, accountId)
	if err != nil {
		return Character{}, err
	}
	if len(chars) > 0 {
		return chars[0], nil
	}

	var charId uint32
	name := fmt.Sprintf("Newbie-%d", accountId)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, name, map_id, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING character_id`,
		uint32(accountId), name, uint32(0), time.Now(),
	).Scan(&charId)
	if err != nil {
		return Character{}, fmt.Errorf("creating default character for account %d: %w", accountId, err)
	}

	return Character{
		Id:        topology.CharacterId(charId),
		AccountId: accountId,
		Name:      name,
		MapId:     topology.MapId(0),
		CreatedAt: time.Now(),
	}, nil
}

func (s *PostgresStore) LoadCharacter(ctx context.Context, characterId topology.CharacterId) (Character, error) {
	var c Character
	var charId, accId, mapId uint32
	err := s.pool.QueryRow(ctx,
		`SELECT character_id, account_id, name, map_id, created_at FROM characters WHERE character_id = $1`,
		uint32(characterId),
	).Scan(&charId, &accId, &c.Name, &mapId, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return Character{}, ErrCharacterNotFound
	}
	if err != nil {
		return Character{}, fmt.Errorf("querying character %d: %w", characterId, err)
	}
	c.Id = topology.CharacterId(charId)
	c.AccountId = topology.AccountId(accId)
	c.MapId = topology.MapId(mapId)
	return c, nil
}

func (s *PostgresStore) GetCharacters(ctx context.Context, accountId topology.AccountId) ([]Character, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT character_id, account_id, name, map_id, created_at FROM characters WHERE account_id = $1 ORDER BY character_id`,
		uint32(accountId),
	)
	if err != nil {
		return nil, fmt.Errorf("querying characters for account %d: %w", accountId, err)
	}
	defer rows.Close()

	var out []Character
	for rows.Next() {
		var c Character
		var charId, accId, mapId uint32
		if err := rows.Scan(&charId, &accId, &c.Name, &mapId, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		c.Id = topology.CharacterId(charId)
		c.AccountId = topology.AccountId(accId)
		c.MapId = topology.MapId(mapId)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characters for account %d: %w", accountId, err)
	}
	return out, nil
}

func (s *PostgresStore) CreateGuestAccount(ctx context.Context) (Account, error) {
	var accId uint32
	username := fmt.Sprintf("Guest-%d", time.Now().UnixNano())
	err := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (username, is_guest, created_at) VALUES ($1, true, $2) RETURNING account_id`,
		username, time.Now(),
	).Scan(&accId)
	if err != nil {
		return Account{}, fmt.Errorf("creating guest account: %w", err)
	}
	return Account{Id: topology.AccountId(accId), Username: username, IsGuest: true, CreatedAt: time.Now()}, nil
}
