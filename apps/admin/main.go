package main

import (
	"context"
	"fmt"
	"os"

	"github.com/napthedev/edura/apps/shared"
	"github.com/napthedev/edura/core"
	logsvc "github.com/napthedev/edura/services/logger"
	"github.com/napthedev/edura/storage/database"
)

func main() {
	conf := core.NewConfig()
	ctx := context.Background()

	logger := logsvc.NewRollbarLogger("admin", conf)
	logger.Enable(false)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Ping(ctx, db); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	validate, _ := shared.NewValidator()
	svcs, err := shared.NewServices(ctx, conf, db, logger, validate)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up services: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		conf:          conf,
		db:            db.DB,
		out:           os.Stdout,
		usrSvc:        svcs.User,
		billingSvc:    svcs.Billing,
		attendanceSvc: svcs.Attendance,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
