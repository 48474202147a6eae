// Package migrations embeds the SQL schema migrations into the binary so
// deployments do not need the files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
