package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/napthedev/edura/apps/shared"
	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/user"
	logsvc "github.com/napthedev/edura/services/logger"
)

// NewValidator returns a validator with every custom tag of the app registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	return shared.NewValidator()
}

// NewLogger returns a logger that reports nothing and writes nowhere.
func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger("test", conf, io.Discard)
	logger.Enable(false)
	return logger
}

// Date builds a wall clock time in loc.
func Date(loc *time.Location, year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func Int64Ptr(i int64) *int64 { return &i }
func IntPtr(i int) *int       { return &i }

func CreateUser(t *testing.T, repo user.Repository, id, name, role string) user.User {
	t.Helper()
	usr, err := repo.SaveUser(context.Background(), user.User{
		ID:        id,
		Name:      name,
		Email:     id + "@edura.test",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(t *testing.T, repo class.Repository, id, name, teacherID string, rate *int64) class.Class {
	t.Helper()
	cls, err := repo.CreateClass(context.Background(), class.Class{
		ID:          id,
		Name:        name,
		Subject:     "Math",
		TeacherID:   teacherID,
		TuitionRate: rate,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func Enroll(t *testing.T, repo class.Repository, classID, studentID string) class.Enrollment {
	t.Helper()
	enr, err := repo.SaveEnrollment(context.Background(), class.Enrollment{
		ID:         classID + "-" + studentID,
		StudentID:  studentID,
		ClassID:    classID,
		Active:     true,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return enr
}

func CreateSchedule(t *testing.T, repo class.Repository, id, classID string, dayOfWeek int, start, end string) class.Schedule {
	t.Helper()
	sch, err := repo.CreateSchedule(context.Background(), class.Schedule{
		ID:        id,
		ClassID:   classID,
		DayOfWeek: dayOfWeek,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	return sch
}

func CreateLog(t *testing.T, repo attendance.Repository, sch class.Schedule, teacherID, date, status string) attendance.Log {
	t.Helper()
	log, err := repo.SaveLog(context.Background(), attendance.Log{
		ID:          sch.ID + "-" + date,
		ScheduleID:  sch.ID,
		ClassID:     sch.ClassID,
		TeacherID:   teacherID,
		SessionDate: date,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateLog() failed: %v", err)
	}
	return log
}
