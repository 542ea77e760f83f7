// Package migrations embeds the goose SQL migration files for the
// accounts/characters schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
