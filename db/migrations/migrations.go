// Package migrations embeds the SQL schema so the server can bootstrap a
// fresh database without external tooling.
package migrations

import _ "embed"

//go:embed 001_init.sql
var Init string
