// Package migrations embeds the goose migrations of the SQL blob backend.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
