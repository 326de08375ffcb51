package main

import (
	"context"

	"github.com/speakmate/speakmate/storage/database"
)

var gooseRunFunc = func(ctx context.Context, db *database.DB, command string, args ...string) error { // mockable
	return db.RunMigrations(ctx, command, args...)
}

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(context.Background(), cli.db, args[0], arguments...)
}
