package database

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
)

// Dialect isolates the engine-specific parts of the document store.
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	DSN(conf core.DatabaseConfig) string

	// Placeholder returns the squirrel placeholder format of the engine.
	Placeholder() sq.PlaceholderFormat

	ConfigureConnection(db *sqlx.DB) error

	// MigrationsSubdir returns the subdirectory of the embedded migrations.
	MigrationsSubdir() string

	GooseDialect() string

	// DocParam wraps the placeholder of a JSON document parameter.
	DocParam() string

	// ArrayContains returns a predicate (one placeholder) testing that the top-level
	// string array `key` of the document holds the bound value.
	ArrayContains(key string) string

	// OwnsAssignment returns a predicate (one placeholder) testing that the document
	// holds an assignment with the bound id.
	OwnsAssignment() string

	// LockSuffix is appended to the SELECT of a read-modify-write transaction.
	LockSuffix() string

	// IsUniqueViolation reports whether err is a primary key / unique constraint violation.
	IsUniqueViolation(err error) bool
}

func DialectFor(engine string) (Dialect, error) {
	switch engine {
	case "sqlite3", "sqlite", "":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	}
	return nil, errors.Errorf("unsupported database engine %q", engine)
}
