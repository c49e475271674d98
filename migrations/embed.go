// Package migrations embeds the upload registry schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
