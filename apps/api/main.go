package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/napthedev/edura/apps/api/echo"
	"github.com/napthedev/edura/apps/shared"
	"github.com/napthedev/edura/assets"
	"github.com/napthedev/edura/core"
	logsvc "github.com/napthedev/edura/services/logger"
	"github.com/napthedev/edura/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger("api", conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger("db", conf)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()
	core.ParseEmailTemplates(assets.FS, conf, logger)

	svcs, err := shared.NewServices(ctx, conf, db, logger, validate)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up services: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Scheduler

	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if conf.Scheduler.Enabled {
		sched, err := newScheduler(conf, logger, svcs.Billing, svcs.Attendance)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up scheduler: %v", err), err)
		}
		go sched.run(schedCtx)
	}

	// =========================================================================
	// Start API Service

	server, err := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			RequestLogger: logsvc.NewRollbarLogger("http", conf).Zerolog(),
			UserSvc:       svcs.User,
			ClassSvc:      svcs.Class,
			BillingSvc:    svcs.Billing,
			AttendanceSvc: svcs.Attendance,
			ResourceSvc:   svcs.Resource,
			Validate:      validate,
			Translator:    translator,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		stopScheduler()

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		return nil, err
	}

	if err = database.Migrate(ctx, db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
