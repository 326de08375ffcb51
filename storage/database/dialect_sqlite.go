package database

import (
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
)

type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// DSN opens transactions with BEGIN IMMEDIATE so that a read-modify-write holds the write lock
// from its first read.
func (d *SQLiteDialect) DSN(conf core.DatabaseConfig) string {
	q := make(url.Values)
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")
	return "file:" + conf.Path + "?" + q.Encode()
}

func (d *SQLiteDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Question
}

func (d *SQLiteDialect) ConfigureConnection(db *sqlx.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) GooseDialect() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DocParam() string {
	return "?"
}

func (d *SQLiteDialect) ArrayContains(key string) string {
	return "EXISTS (SELECT 1 FROM json_each(records.doc, '$." + key + "') WHERE json_each.value = ?)"
}

func (d *SQLiteDialect) OwnsAssignment() string {
	return "EXISTS (SELECT 1 FROM json_each(records.doc, '$.assignments') WHERE json_extract(json_each.value, '$.id') = ?)"
}

func (d *SQLiteDialect) LockSuffix() string {
	return ""
}

func (d *SQLiteDialect) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
