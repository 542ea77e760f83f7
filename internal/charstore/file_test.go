package charstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreGetOrCreateAccountIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	a1, err := s.GetOrCreateAccount(ctx, "alice")
	require.NoError(t, err)
	a2, err := s.GetOrCreateAccount(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, a1, a2)
}

func TestFileStoreEnsureDefaultCharacterCreatesOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	acc, err := s.GetOrCreateAccount(ctx, "bob")
	require.NoError(t, err)

	c1, err := s.EnsureDefaultCharacter(ctx, acc.Id)
	require.NoError(t, err)
	c2, err := s.EnsureDefaultCharacter(ctx, acc.Id)
	require.NoError(t, err)
	require.Equal(t, c1, c2)

	chars, err := s.GetCharacters(ctx, acc.Id)
	require.NoError(t, err)
	require.Len(t, chars, 1)
}

func TestFileStoreLoadCharacterNotFound(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.LoadCharacter(ctx, 9999)
	require.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestFileStoreCreateGuestAccountIsUnique(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	g1, err := s.CreateGuestAccount(ctx)
	require.NoError(t, err)
	g2, err := s.CreateGuestAccount(ctx)
	require.NoError(t, err)
	require.NotEqual(t, g1.Username, g2.Username)
	require.True(t, g1.IsGuest)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s1, err := NewFileStore(path)
	require.NoError(t, err)
	acc, err := s1.GetOrCreateAccount(ctx, "carol")
	require.NoError(t, err)

	s2, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := s2.GetOrCreateAccount(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, acc, got)
}
