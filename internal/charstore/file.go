package charstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kestrelnet/shroomd/internal/topology"
)

// FileStore is the default, zero-configuration Store used when
// CHARACTER_STORE_CONNECTION is empty: a single JSON file guarded by an
// in-process mutex. It is meant for local development, not production
// load.
type FileStore struct {
	path string

	mu         sync.Mutex
	accounts   map[string]Account
	characters map[topology.CharacterId]Character
	nextAcct   uint32
	nextChar   uint32
}

type fileStoreDoc struct {
	Accounts   []Account   `json:"accounts"`
	Characters []Character `json:"characters"`
	NextAcct   uint32      `json:"next_account_id"`
	NextChar   uint32      `json:"next_character_id"`
}

// NewFileStore opens (or creates) the JSON-backed store at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:       path,
		accounts:   make(map[string]Account),
		characters: make(map[topology.CharacterId]Character),
		nextAcct:   1,
		nextChar:   1,
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("loading character store file %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var doc fileStoreDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, a := range doc.Accounts {
		s.accounts[a.Username] = a
	}
	for _, c := range doc.Characters {
		s.characters[c.Id] = c
	}
	if doc.NextAcct > 0 {
		s.nextAcct = doc.NextAcct
	}
	if doc.NextChar > 0 {
		s.nextChar = doc.NextChar
	}
	return nil
}

// save persists the store. Caller must hold s.mu.
func (s *FileStore) save() error {
	doc := fileStoreDoc{NextAcct: s.nextAcct, NextChar: s.nextChar}
	for _, a := range s.accounts {
		doc.Accounts = append(doc.Accounts, a)
	}
	for _, c := range s.characters {
		doc.Characters = append(doc.Characters, c)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *FileStore) GetOrCreateAccount(ctx context.Context, username string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[username]; ok {
		return acc, nil
	}

	acc := Account{
		Id:        topology.AccountId(s.nextAcct),
		Username:  username,
		CreatedAt: time.Now(),
	}
	s.nextAcct++
	s.accounts[username] = acc
	if err := s.save(); err != nil {
		return Account{}, fmt.Errorf("saving new account %q: %w", username, err)
	}
	return acc, nil
}

func (s *FileStore) EnsureDefaultCharacter(ctx context.Context, accountId topology.AccountId) (Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.characters {
		if c.AccountId == accountId {
			return c, nil
		}
	}

	c := Character{
		Id:        topology.CharacterId(s.nextChar),
		AccountId: accountId,
		Name:      fmt.Sprintf("Newbie-%d", accountId),
		CreatedAt: time.Now(),
	}
	s.nextChar++
	s.characters[c.Id] = c
	if err := s.save(); err != nil {
		return Character{}, fmt.Errorf("saving default character for account %d: %w", accountId, err)
	}
	return c, nil
}

func (s *FileStore) LoadCharacter(ctx context.Context, characterId topology.CharacterId) (Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.characters[characterId]
	if !ok {
		return Character{}, ErrCharacterNotFound
	}
	return c, nil
}

func (s *FileStore) GetCharacters(ctx context.Context, accountId topology.AccountId) ([]Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Character
	for _, c := range s.characters {
		if c.AccountId == accountId {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *FileStore) CreateGuestAccount(ctx context.Context) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := Account{
		Id:        topology.AccountId(s.nextAcct),
		Username:  fmt.Sprintf("Guest-%d", s.nextAcct),
		IsGuest:   true,
		CreatedAt: time.Now(),
	}
	s.nextAcct++
	s.accounts[acc.Username] = acc
	if err := s.save(); err != nil {
		return Account{}, fmt.Errorf("saving guest account: %w", err)
	}
	return acc, nil
}
