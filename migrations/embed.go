// Package migrations embeds the SQL files applied at startup to build
// the chat history schema.
package migrations

import "embed"

// FS holds the embedded up and down migration scripts.
//
//go:embed *.sql
var FS embed.FS
