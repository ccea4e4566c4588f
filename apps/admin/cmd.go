package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/grade"
	"github.com/Nicko-rgb/server-notas/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db           *sqlx.DB
	usrRepo      user.Repository
	academicRepo academic.Repository
	matRepo      enrollment.Repository
	gradeRepo    grade.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb                                - create the application database and user")
	fmt.Println("  migrate up|down|status [...]            - run database migrations")
	fmt.Println("  adduser -dni DNI -email EMAIL           - create or update an admin user")
	fmt.Println("  resetpassword -login DNI|EMAIL          - reset a user's password")
	fmt.Println("  seed                                    - load demo data")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserDNI := addUserCmd.String("dni", "", "The admin's DNI (8 digits). The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The admin's email.")
	addUserFirst := addUserCmd.String("first", "Admin", "The admin's first name.")
	addUserLast := addUserCmd.String("last", "Sistema", "The admin's last name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordLogin := resetPasswordCmd.String("login", "", "The user's DNI or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserDNI == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserDNI, *addUserEmail, *addUserFirst, *addUserLast, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordLogin == "" {
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
		return cli.resetPassword(*resetPasswordLogin, pwd)
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
