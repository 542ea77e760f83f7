// Package bootstrap holds the small amount of process wiring shared by
// cmd/shroomd, cmd/loginserver and cmd/channelserver: resolving the
// character-store connection string into a concrete charstore.Store.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrelnet/shroomd/internal/charstore"
)

// OpenCharacterStore resolves conn into a Store. An empty or non-DSN
// connection string opens the file-backed store at conn (or the default
// path if conn is empty); a postgres:// DSN runs migrations and opens a
// pooled Postgres store. The returned close func releases any pooled
// resources and is safe to call even when it does nothing.
func OpenCharacterStore(ctx context.Context, conn string) (charstore.Store, func(), error) {
	if strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://") {
		if err := charstore.RunMigrations(ctx, conn); err != nil {
			return nil, nil, fmt.Errorf("running character store migrations: %w", err)
		}
		store, err := charstore.NewPostgresStore(ctx, conn)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres character store: %w", err)
		}
		return store, func() { store.Close() }, nil
	}

	path := conn
	if path == "" {
		path = "data/characters.json"
	}
	store, err := charstore.NewFileStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file character store at %s: %w", path, err)
	}
	return store, func() {}, nil
}
