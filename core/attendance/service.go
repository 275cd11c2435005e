package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/services/metrics"
)

var (
	ErrScheduleNotFound = core.NewNotFoundError("schedule")

	errWrongWeekday = "sessionDate does not fall on the schedule's day of week"
)

type (
	Repository interface {
		// QuerySessionsByDay returns the schedules held on dayOfWeek (0 = Sunday) with their class.
		QuerySessionsByDay(ctx context.Context, dayOfWeek int) ([]ScheduledSession, error)
		GetSession(ctx context.Context, scheduleID string) (ScheduledSession, error)
		// CreateMissedLog inserts log unless one already exists for its (ScheduleID, SessionDate).
		// inserted is false when a log was already there.
		CreateMissedLog(ctx context.Context, log Log) (inserted bool, err error)
		// SaveLog inserts log or overwrites the existing one for the same session.
		SaveLog(ctx context.Context, log Log) (Log, error)
		QueryLogs(ctx context.Context, filter QueryFilter) ([]Log, error)
	}

	Service interface {
		MarkMissedSessions(ctx context.Context, now time.Time) (ReconciliationResult, error)
		Record(ctx context.Context, teacherID string, na NewAttendance) (Log, error)
		Query(ctx context.Context, filter QueryFilter) ([]Log, error)
	}

	Options struct {
		Location     *time.Location
		GraceMinutes int
	}

	service struct {
		repo     Repository
		logger   core.Logger
		validate *validator.Validate
		opts     Options
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger, validate *validator.Validate, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &service{
		repo:     repo,
		logger:   logger,
		validate: validate,
		opts:     opts,
	}
}

// MarkMissedSessions logs a "missed" status for every session of today that ended (plus the grace period)
// without any attendance log. Each session is handled on its own: a failing one is counted and skipped.
func (svc *service) MarkMissedSessions(ctx context.Context, now time.Time) (res ReconciliationResult, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.Outcome(err)
		if err == nil && res.FailedCount > 0 {
			outcome = "partial"
		}
		metrics.ObserveJob(metrics.JobMarkMissedSessions, start, outcome)
	}()

	local := now.In(svc.opts.Location)
	today := core.DateKey(local, svc.opts.Location)
	currMinutes := local.Hour()*60 + local.Minute()
	res = ReconciliationResult{Date: today, Timestamp: now.UTC()}

	sessions, err := svc.repo.QuerySessionsByDay(ctx, int(local.Weekday()))
	if err != nil {
		return res, errors.Wrap(err, "querying today's schedules")
	}
	res.TotalSchedulesChecked = len(sessions)

	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "marking missed sessions")
		}

		marked, err := svc.markIfMissed(ctx, s, today, currMinutes, now)
		if err != nil {
			res.FailedCount++
			metrics.JobItemFailures.WithLabelValues(metrics.JobMarkMissedSessions).Inc()
			svc.logger.Error(
				fmt.Sprintf("marking missed session: %v", err), err,
				map[string]interface{}{"scheduleId": s.ScheduleID, "classId": s.ClassID, "date": today},
			)
			continue
		}
		if marked {
			res.MarkedCount++
		}
	}

	metrics.SessionsMarkedMissed.Add(float64(res.MarkedCount))
	res.Success = res.FailedCount == 0
	return res, nil
}

func (svc *service) markIfMissed(ctx context.Context, s ScheduledSession, today string, currMinutes int, now time.Time) (bool, error) {
	endMinutes, err := class.ParseClock(s.EndTime)
	if err != nil {
		return false, err
	}
	if currMinutes < endMinutes+svc.opts.GraceMinutes {
		return false, nil // not over yet
	}

	inserted, err := svc.repo.CreateMissedLog(ctx, Log{
		ID:          uuid.NewString(),
		ScheduleID:  s.ScheduleID,
		ClassID:     s.ClassID,
		TeacherID:   s.TeacherID,
		SessionDate: today,
		Status:      StatusMissed,
		CreatedAt:   now.UTC(),
	})
	if err != nil {
		return false, errors.Wrap(err, "creating missed log")
	}
	return inserted, nil
}

// Record stores the attendance of a session on behalf of the teacher of its class.
// It overwrites any previous log of that session, including one marked missed.
func (svc *service) Record(ctx context.Context, teacherID string, na NewAttendance) (Log, error) {
	na.Status = core.CleanString(na.Status, true /* lower */)
	na.Notes = core.CleanString(na.Notes)
	if err := svc.validate.Struct(na); err != nil {
		return Log{}, err
	}

	s, err := svc.repo.GetSession(ctx, na.ScheduleID)
	if err != nil {
		return Log{}, err
	}
	if s.TeacherID != teacherID {
		return Log{}, core.ErrForbidden
	}
	date, err := time.ParseInLocation("2006-01-02", na.SessionDate, svc.opts.Location)
	if err != nil {
		return Log{}, core.NewValidationError(err, core.FieldError{Field: "sessionDate", Error: err.Error()})
	}
	if int(date.Weekday()) != s.DayOfWeek {
		return Log{}, core.NewValidationError(nil, core.FieldError{Field: "sessionDate", Error: errWrongWeekday})
	}

	log, err := svc.repo.SaveLog(ctx, Log{
		ID:          uuid.NewString(),
		ScheduleID:  s.ScheduleID,
		ClassID:     s.ClassID,
		TeacherID:   s.TeacherID,
		SessionDate: na.SessionDate,
		Status:      na.Status,
		Notes:       na.Notes,
		CreatedAt:   core.NowFunc().UTC(),
	})
	return log, errors.Wrap(err, "saving attendance log")
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Log, error) {
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryLogs(ctx, filter)
}
