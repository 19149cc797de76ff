package database

import "strconv"

// Dialect renders the SQL fragments that differ between the supported stores.
type Dialect interface {
	Name() string
	// Placeholder returns the positional parameter marker for the n-th argument (1-based).
	Placeholder(n int) string
	// LockForUpdate is appended to a row read that must hold its lock until commit.
	LockForUpdate() string
}

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) LockForUpdate() string    { return " FOR UPDATE" }

// sqliteDialect relies on the single pooled connection for isolation; the
// write transaction already excludes every other writer.
type sqliteDialect struct{}

func (sqliteDialect) Name() string             { return "sqlite" }
func (sqliteDialect) Placeholder(n int) string { return "?" + strconv.Itoa(n) }
func (sqliteDialect) LockForUpdate() string    { return "" }

// Postgres and SQLite are the dialects of the two supported drivers.
var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)
