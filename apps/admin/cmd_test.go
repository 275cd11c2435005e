package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/user"
	"github.com/napthedev/edura/storage/database/dummydb"
	"github.com/napthedev/edura/testutil"
)

type fixture struct {
	cli       *commandLine
	out       *bytes.Buffer
	userRepo  user.Repository
	classRepo class.Repository
	billRepo  billing.Repository
	attRepo   attendance.Repository
}

func setup(t *testing.T) fixture {
	db, err := dummydb.Open()
	require.NoError(t, err)
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	validate, _ := testutil.NewValidator()

	f := fixture{
		out:       new(bytes.Buffer),
		userRepo:  dummydb.NewUserRepository(db),
		classRepo: dummydb.NewClassRepository(db),
		billRepo:  dummydb.NewBillingRepository(db),
		attRepo:   dummydb.NewAttendanceRepository(db),
	}
	f.cli = &commandLine{
		conf:   conf,
		out:    f.out,
		usrSvc: user.NewService(f.userRepo, validate),
		billingSvc: billing.NewService(f.billRepo, nil, logger, validate, billing.Options{
			Location: conf.Timezone,
			DueDay:   conf.Billing.DueDay,
		}),
		attendanceSvc: attendance.NewService(f.attRepo, logger, validate, attendance.Options{
			Location:     conf.Timezone,
			GraceMinutes: conf.Attendance.GraceMinutes,
		}),
	}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runCLITests(t *testing.T, f fixture, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			f.out.Reset()
			err := f.cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, f.out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(_ context.Context, command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, f, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "invoices", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)

	runCLITests(t, f, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-id", "m1", "-email", "m1@edura.test"}, wantErr: errHelp},
		{
			name:       "invalid role",
			args:       []string{"adduser", "-id", "m1", "-email", "m1@edura.test", "-name", "Minh", "-role", "admin"},
			wantErrStr: "role",
		},
		{
			name:    "create",
			args:    []string{"adduser", "-id", "m1", "-email", "M1@edura.test", "-name", "Minh", "-role", "manager"},
			wantOut: "user m1 <m1@edura.test> saved as manager",
		},
		{
			name:    "update",
			args:    []string{"adduser", "-id", "m1", "-email", "minh@edura.test", "-name", "Minh", "-role", "teacher"},
			wantOut: "user m1 <minh@edura.test> saved as teacher",
		},
	})

	usr, err := f.userRepo.GetUser(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)
}

func Test_commandLine_jobs(t *testing.T) {
	f := setup(t)
	teacher := testutil.CreateUser(t, f.userRepo, "t1", "Teacher", user.RoleTeacher)
	student := testutil.CreateUser(t, f.userRepo, "s1", "Student", user.RoleStudent)
	cls := testutil.CreateClass(t, f.classRepo, "c1", "Math", teacher.ID, testutil.Int64Ptr(500000))
	testutil.Enroll(t, f.classRepo, cls.ID, student.ID)
	testutil.CreateSchedule(t, f.classRepo, "sch1", cls.ID, int(time.Monday), "08:00", "09:00")

	// 2024-06-03 is a Monday
	runCLITests(t, f, []cliTest{
		{name: "bad -at", args: []string{"generate-bills", "-at", "yesterday"}, wantErrStr: "must be RFC3339"},
		{
			name: "generate bills", args: []string{"generate-bills", "-at", "2024-06-03T10:00:00+07:00"},
			wantOut: "billing month 2024-06: 1 created, 0 skipped",
		},
		{
			name: "generate bills again", args: []string{"generate-bills", "-at", "2024-06-20T10:00:00+07:00"},
			wantOut: "billing month 2024-06: 0 created, 1 skipped",
		},
		{
			name: "month boundary in local time", args: []string{"generate-bills", "-at", "2024-06-30T18:00:00Z"},
			wantOut: "billing month 2024-07: 1 created, 0 skipped",
		},
		{
			name: "mark missed sessions", args: []string{"mark-missed-sessions", "-at", "2024-06-03T10:00:00+07:00"},
			wantOut: "2024-06-03: 1 marked missed, 1 schedules checked, 0 failed",
		},
	})
}

func Test_commandLine_token(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.userRepo, "t1", "Teacher", user.RoleTeacher)

	runCLITests(t, f, []cliTest{
		{name: "no id", args: []string{"token"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"token", "-id", "nope"}, wantErr: user.ErrNotFound},
		{name: "issue", args: []string{"token", "-id", "t1", "-ttl", "1h"}},
	})

	token := strings.TrimSpace(f.out.String())
	assert.Equal(t, 3, len(strings.Split(token, ".")), token)
}
