// Package migrations embeds the schema applied at startup by database.RunMigrations.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
