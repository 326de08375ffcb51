package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/speakmate/speakmate/core/ledger"
	"github.com/speakmate/speakmate/core/student"
	"github.com/speakmate/speakmate/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *database.DB
	studentSvc *student.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...] - run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
	fmt.Println("  createaccount -email EMAIL -classes CLASSES -sections SECTIONS [-role ROLE] [-name NAME] - create an account from the template")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAccountCmd := flag.NewFlagSet("createaccount", flag.ExitOnError)
	createAccountEmail := createAccountCmd.String("email", "", "The account's email.")
	createAccountClasses := createAccountCmd.String("classes", "", "Comma separated classes.")
	createAccountSections := createAccountCmd.String("sections", "", "Comma separated sections.")
	createAccountRole := createAccountCmd.String("role", ledger.RoleStudent, "student or teacher.")
	createAccountName := createAccountCmd.String("name", "", "The account holder's full name.")
	createAccountPwd := createAccountCmd.Bool("password", false, "Prompt for a password.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createaccount":
		if err := createAccountCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAccountEmail == "" || *createAccountClasses == "" || *createAccountSections == "" {
			createAccountCmd.Usage()
			return errHelp
		}
		acc := ledger.NewAccount{
			Email:    *createAccountEmail,
			FullName: *createAccountName,
			Role:     *createAccountRole,
			Classes:  splitList(*createAccountClasses),
			Sections: splitList(*createAccountSections),
		}
		if *createAccountPwd {
			pwd, err := promptPassword()
			if err != nil {
				return err
			}
			if pwd == "" {
				createAccountCmd.Usage()
				return errHelp
			}
			acc.Password = pwd
		}
		return cli.createAccount(acc)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
