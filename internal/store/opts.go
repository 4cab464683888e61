package store

import "strings"

// Opts holds store configuration collected from options.
type Opts struct {
	// DSN is either an SQLite file path or a PostgreSQL connection string.
	DSN string
	// Driver is "sqlite3" or "postgres"; derived from the DSN when empty.
	Driver string
}

// Option configures store construction.
type Option func(*Opts)

// WithSQLiteDSN points the store at an SQLite database file.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "sqlite3"
	}
}

// WithPostgresDSN points the store at a PostgreSQL database.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "postgres"
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". URL-style and
// key=value connection strings are Postgres; anything else is treated as an
// SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
