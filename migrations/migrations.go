// Package migrations embeds the SQL schema migrations so the server binary
// can run them at startup without access to the source tree.
package migrations

import "embed"

// FS holds the embedded goose migration files.
//
//go:embed *.sql
var FS embed.FS
