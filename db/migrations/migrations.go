// Package migrations embeds the SQL backend schema so migrate commands do
// not depend on the working directory.
package migrations

import "embed"

// FS holds the goose migration files under "sql".
//
//go:embed sql/*.sql
var FS embed.FS

// Dir is the directory inside FS that goose reads.
const Dir = "sql"
