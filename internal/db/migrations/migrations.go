package migrations

import "embed"

// FS holds one directory of migrations per driver.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
