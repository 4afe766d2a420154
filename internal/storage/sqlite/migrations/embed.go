package migrations

import "embed"

// FS contains embedded SQLite migrations for protocol storage.
//
//go:embed *.sql
var FS embed.FS
