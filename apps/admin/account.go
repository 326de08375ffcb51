package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/speakmate/speakmate/core/ledger"
	"github.com/speakmate/speakmate/core/student"
)

// createAccount copies the template record into a new account.
func (cli *commandLine) createAccount(acc ledger.NewAccount) error {
	rec, outcome, err := cli.studentSvc.CreateAccount(context.Background(), acc)
	if err != nil {
		return err
	}
	if outcome == student.OutcomeExists {
		fmt.Printf("account %s already exists\n", rec.Email)
		return nil
	}
	fmt.Printf("account %s created (%s)\n", rec.Email, rec.Role)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	return cli.studentSvc.ResetPassword(context.Background(), email, pwd)
}

// splitList splits a comma separated flag value.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
