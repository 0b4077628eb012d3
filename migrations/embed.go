// Package migrations ships the event log schema. The files are applied in
// order by internal/database on every start.
package migrations

import "embed"

// FS contains the numbered up/down migration pairs.
//
//go:embed *.sql
var FS embed.FS
