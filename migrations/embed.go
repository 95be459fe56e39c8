// Package migrations embeds the postgres schema so the server can migrate
// without MIGRATIONS_DIR on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
