// Package migrations carries the schema migration scripts for the
// metadata store, embedded so the binary needs no external files.
package migrations

import "embed"

// FS holds the numbered .sql migration scripts.
//
//go:embed *.sql
var FS embed.FS
