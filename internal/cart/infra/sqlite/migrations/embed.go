package migrations

import "embed"

// FS contains the embedded cart storage migrations.
//
//go:embed *.sql
var FS embed.FS
