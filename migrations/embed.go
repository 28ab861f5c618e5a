// Package migrations embeds the SQL migration files for the auth service.
package migrations

import "embed"

// FS holds all .sql migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
