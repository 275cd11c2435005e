package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf          *core.Config
	db            *sql.DB
	out           io.Writer
	usrSvc        user.Service
	billingSvc    billing.Service
	attendanceSvc attendance.Service
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -id ID -email EMAIL -name NAME -role ROLE - create or update a user")
	_, _ = fmt.Fprintln(cli.out, "  generate-bills [-at RFC3339] - bill the month `at` falls in (default: now)")
	_, _ = fmt.Fprintln(cli.out, "  mark-missed-sessions [-at RFC3339] - mark the sessions of the day `at` falls in as missed")
	_, _ = fmt.Fprintln(cli.out, "  token -id ID [-ttl DURATION] - issue an API token for a user")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := cli.newFlagSet("adduser")
	addUserID := addUserCmd.String("id", "", "The user's ID, as issued by the auth service")
	addUserEmail := addUserCmd.String("email", "", "The user's email")
	addUserName := addUserCmd.String("name", "", "The user's full name")
	addUserRole := addUserCmd.String("role", "", "One of manager, teacher or student")

	genBillsCmd := cli.newFlagSet("generate-bills")
	genBillsAt := genBillsCmd.String("at", "", "RFC3339 time the job runs at")

	markMissedCmd := cli.newFlagSet("mark-missed-sessions")
	markMissedAt := markMissedCmd.String("at", "", "RFC3339 time the job runs at")

	tokenCmd := cli.newFlagSet("token")
	tokenID := tokenCmd.String("id", "", "The user's ID")
	tokenTTL := tokenCmd.Duration("ttl", 24*time.Hour, "How long the token is valid")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserID == "" || *addUserEmail == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{ID: *addUserID, Email: *addUserEmail, Name: *addUserName, Role: *addUserRole})
	case "generate-bills":
		if err := genBillsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		at, err := parseAt(*genBillsAt)
		if err != nil {
			return err
		}
		return cli.generateBills(at)
	case "mark-missed-sessions":
		if err := markMissedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		at, err := parseAt(*markMissedAt)
		if err != nil {
			return err
		}
		return cli.markMissedSessions(at)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenID == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenID, *tokenTTL)
	default:
		cli.printUsage()
		return errHelp
	}
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return core.NowFunc(), nil
	}
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -at %q: must be RFC3339, eg. 2024-06-01T08:00:00+07:00", s)
	}
	return at, nil
}
