// Package migrations embebe las migraciones SQL de Postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
