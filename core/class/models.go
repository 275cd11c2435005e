package class

import (
	"time"

	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
)

type Class struct {
	ID          string    `json:"classId"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	TeacherID   string    `json:"teacherId"`
	TuitionRate *int64    `json:"tuitionRate"` // VND per billing month; nil or <= 0 means non-billable
	CreatedAt   time.Time `json:"createdAt"`
}

// Billable reports whether the class charges a positive tuition rate.
func (c Class) Billable() bool {
	return c.TuitionRate != nil && *c.TuitionRate > 0
}

type Enrollment struct {
	ID         string    `json:"enrollmentId"`
	StudentID  string    `json:"studentId"`
	ClassID    string    `json:"classId"`
	Active     bool      `json:"active"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Schedule is a recurring weekly slot of a class.
type Schedule struct {
	ID        string `json:"scheduleId"`
	ClassID   string `json:"classId"`
	DayOfWeek int    `json:"dayOfWeek"` // 0 = Sunday
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
}

// ParseClock converts an "HH:MM" (or "HH:MM:SS") time of day into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		var err2 error
		if t, err2 = time.Parse("15:04:05", s); err2 != nil {
			return 0, errors.Wrapf(err, "parsing time of day %q", s)
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

type NewClass struct {
	Name        string `json:"name" validate:"required,max=255"`
	Subject     string `json:"subject" validate:"max=255"`
	TeacherID   string `json:"teacherId" validate:"required"`
	TuitionRate *int64 `json:"tuitionRate" validate:"omitempty,gte=0"`
}

func (nc *NewClass) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.TeacherID = core.CleanString(nc.TeacherID)
}

type UpdateTuition struct {
	TuitionRate *int64 `json:"tuitionRate" validate:"omitempty,gte=0"`
}

type NewEnrollment struct {
	StudentID string `json:"studentId" validate:"required"`
}

type NewSchedule struct {
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,gte=0,lte=6"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

// QueryFilter restricts listed classes; empty fields match everything.
type QueryFilter struct {
	TeacherID string
	StudentID string
}
