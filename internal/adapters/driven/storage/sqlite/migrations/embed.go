// Package migrations carries the schema for the SQLite index file.
package migrations

import "embed"

// FS holds the numbered *.up.sql files applied in name order.
//
//go:embed *.sql
var FS embed.FS
