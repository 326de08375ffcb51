package database

import (
	"context"
	"io/fs"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/speakmate/speakmate/core"
	appfs "github.com/speakmate/speakmate/fs"
)

// DB is a connection bound to the dialect it was opened with.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

func Open(conf *core.Config) (*DB, error) {
	dialect, err := DialectFor(conf.Database.Engine)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(dialect.DriverName(), dialect.DSN(conf.Database))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = dialect.ConfigureConnection(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "configuring connection")
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrations returns the embedded migrations of the dialect.
func (db *DB) Migrations() (fs.FS, error) {
	sub, err := fs.Sub(appfs.FS, "migrations/"+db.Dialect.MigrationsSubdir())
	return sub, errors.Wrap(err, "reading migrations")
}

// SetMigrationLogger sends the output of goose to `std`. A nil logger discards it.
func SetMigrationLogger(std *log.Logger) {
	if std == nil {
		goose.SetLogger(goose.NopLogger())
		return
	}
	goose.SetLogger(std)
}

// RunMigrations runs a goose command ("up", "down", "status", "version", ...) against the database.
func (db *DB) RunMigrations(ctx context.Context, command string, args ...string) error {
	migrations, err := db.Migrations()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err = goose.SetDialect(db.Dialect.GooseDialect()); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err = goose.RunContext(ctx, command, db.DB.DB, ".", args...); err != nil {
		return errors.Wrapf(err, "running migrations (%s)", command)
	}
	return nil
}

func Migrate(ctx context.Context, db *DB) error {
	return errors.Wrap(db.RunMigrations(ctx, "up"), "migrating database")
}
