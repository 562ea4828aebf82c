// Package migrations embeds the goose migrations of the client session store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
