// Package migrations embeds the schema migrations, one directory per SQL
// dialect. The migrate command picks the directory matching DB_DRIVER.
package migrations

import "embed"

//go:embed mysql sqlite
var FS embed.FS
