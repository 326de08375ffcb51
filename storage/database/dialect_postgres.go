package database

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
)

type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(conf core.DatabaseConfig) string {
	return conf.URL
}

func (d *PostgresDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Dollar
}

func (d *PostgresDialect) ConfigureConnection(db *sqlx.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) GooseDialect() string {
	return "postgres"
}

func (d *PostgresDialect) DocParam() string {
	return "CAST(? AS JSONB)"
}

func (d *PostgresDialect) ArrayContains(key string) string {
	return "records.doc->'" + key + "' @> jsonb_build_array(CAST(? AS TEXT))"
}

func (d *PostgresDialect) OwnsAssignment() string {
	return "records.doc->'assignments' @> jsonb_build_array(jsonb_build_object('id', CAST(? AS TEXT)))"
}

func (d *PostgresDialect) LockSuffix() string {
	return "FOR UPDATE"
}

func (d *PostgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
