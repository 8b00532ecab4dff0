// Package migrations embeds the SQL migration files for the PostgreSQL
// catalog driver.
package migrations

import "embed"

// FS holds the embedded migration files, consumed by golang-migrate through
// its iofs source driver.
//
//go:embed *.sql
var FS embed.FS
