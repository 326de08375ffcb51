package main

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
	"github.com/speakmate/speakmate/core/student"
	"github.com/speakmate/speakmate/storage/database"
	inmemdb "github.com/speakmate/speakmate/storage/database/inmem"
	testutil "github.com/speakmate/speakmate/tests"
)

var store ledger.Store

func setup(t *testing.T) *commandLine {
	store = inmemdb.NewRecordStore(inmemdb.Open())
	testutil.CreateRecord(t, store, ledger.Record{ID: "tpl", Email: "template", Role: ledger.RoleStudent})

	return &commandLine{
		studentSvc: student.NewService(store, testutil.NopLogger{}, "template"),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(ctx context.Context, db *database.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "records_index", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Error("cli.run() expected an error")
			}
		})
	}
}

func Test_commandLine_createAccount(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"createaccount"}, wantErr: errHelp},
		{name: "no sections", args: []string{"createaccount", "-email", "ada@school.test", "-classes", "5"}, wantErr: errHelp},
		{name: "empty password", args: []string{"createaccount", "-email", "ada@school.test", "-classes", "5", "-sections", "B", "-password"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"createaccount", "-email", "ada@school.test", "-classes", "5", "-sections", "B", "-role", "admin"}, wantErrStr: "unknown role \"admin\""},
		{name: "created", args: []string{"createaccount", "-email", "ada@school.test", "-classes", "5,6", "-sections", "B", "-name", "Ada L", "-password"}, extra: extra{pwd: "s3cret!"}},
		{name: "exists", args: []string{"createaccount", "-email", "ada@school.test", "-classes", "5", "-sections", "B"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}

	rec := testutil.GetRecord(t, store, "ada@school.test")
	if rec.FullName != "Ada L" {
		t.Errorf("FullName = %q, want %q", rec.FullName, "Ada L")
	}
	if len(rec.Classes) != 2 || rec.Classes[1] != "6" {
		t.Errorf("Classes = %v, want [5 6]", rec.Classes)
	}
	if err := rec.CheckPassword("s3cret!"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	testutil.CreateStudent(t, store, "ada@school.test", "5", "B")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-email", "lol@school.test"}, extra: extra{pwd: "lol"}, wantErrStr: "User not found"},
		{name: "reset", args: []string{"resetpassword", "-email", "ada@school.test"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if !core.IsNotFound(err) || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}

	if err := testutil.GetRecord(t, store, "ada@school.test").CheckPassword("lmao"); err != nil {
		t.Errorf("failed to update new password: %v", err)
	}
}
