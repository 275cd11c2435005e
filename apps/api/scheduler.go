package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
)

// scheduler runs both jobs in-process on cron specs. Production triggers them through /api/cron instead.
type scheduler struct {
	loc           *time.Location
	logger        core.Logger
	billingSvc    billing.Service
	attendanceSvc attendance.Service

	billingAt    cron.Schedule
	attendanceAt cron.Schedule
}

func newScheduler(conf *core.Config, logger core.Logger, billingSvc billing.Service, attendanceSvc attendance.Service) (*scheduler, error) {
	billingAt, err := cron.ParseStandard(conf.Scheduler.BillingSpec)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing billing spec %q", conf.Scheduler.BillingSpec)
	}
	attendanceAt, err := cron.ParseStandard(conf.Scheduler.AttendanceSpec)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing attendance spec %q", conf.Scheduler.AttendanceSpec)
	}
	return &scheduler{
		loc:           conf.Timezone,
		logger:        logger,
		billingSvc:    billingSvc,
		attendanceSvc: attendanceSvc,
		billingAt:     billingAt,
		attendanceAt:  attendanceAt,
	}, nil
}

// run blocks until ctx is done, then waits for running jobs to return.
func (s *scheduler) run(ctx context.Context) {
	l := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	c.Schedule(s.billingAt, cron.FuncJob(func() { s.generateBills(ctx, core.NowFunc()) }))
	c.Schedule(s.attendanceAt, cron.FuncJob(func() { s.markMissedSessions(ctx, core.NowFunc()) }))

	c.Start()
	s.logger.Info("Scheduler started", map[string]interface{}{"timezone": s.loc.String()})
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *scheduler) markMissedSessions(ctx context.Context, now time.Time) {
	res, err := s.attendanceSvc.MarkMissedSessions(ctx, now)
	if err != nil {
		s.logger.Error("marking missed sessions", err)
		return
	}
	s.logger.Info("missed sessions marked", map[string]interface{}{
		"date":    res.Date,
		"marked":  res.MarkedCount,
		"checked": res.TotalSchedulesChecked,
		"failed":  res.FailedCount,
	})
}

func (s *scheduler) generateBills(ctx context.Context, now time.Time) {
	res, err := s.billingSvc.GenerateMonthlyBills(ctx, now)
	if err != nil {
		s.logger.Error("generating monthly bills", err)
		return
	}
	s.logger.Info("monthly bills generated", map[string]interface{}{
		"month":   res.BillingMonth,
		"created": res.Created,
		"skipped": res.Skipped,
	})
}

// cronLogger adapts core.Logger to cron.Logger; wake-up chatter goes to debug.
type cronLogger struct {
	logger core.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, cronFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s: %v", msg, err), err, cronFields(keysAndValues))
}

func cronFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
