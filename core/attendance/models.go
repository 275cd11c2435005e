package attendance

import (
	"time"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusMissed  = "missed"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusMissed}

// Log records what happened to one session; at most one exists per (ScheduleID, SessionDate).
type Log struct {
	ID          string    `json:"logId"`
	ScheduleID  string    `json:"scheduleId"`
	ClassID     string    `json:"classId"`
	TeacherID   string    `json:"teacherId"`
	SessionDate string    `json:"sessionDate"` // YYYY-MM-DD
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ScheduledSession is a weekly class schedule joined with its owning class.
type ScheduledSession struct {
	ScheduleID string
	ClassID    string
	TeacherID  string
	DayOfWeek  int
	StartTime  string
	EndTime    string
}

// ReconciliationResult summarizes a missed-session job run.
type ReconciliationResult struct {
	Success               bool      `json:"success"`
	Date                  string    `json:"date"`
	MarkedCount           int       `json:"markedCount"`
	TotalSchedulesChecked int       `json:"totalSchedulesChecked"`
	FailedCount           int       `json:"failedCount"`
	Timestamp             time.Time `json:"timestamp"`
}

type NewAttendance struct {
	ScheduleID  string `json:"scheduleId" validate:"required"`
	SessionDate string `json:"sessionDate" validate:"required,datekey"`
	Status      string `json:"status" validate:"required,oneof=present absent late"`
	Notes       string `json:"notes" validate:"max=1000"`
}

type QueryFilter struct {
	ClassID   string `query:"classId"`
	TeacherID string `json:"-"` // scoped by the caller
	From      string `query:"from" validate:"omitempty,datekey"`
	To        string `query:"to" validate:"omitempty,datekey"`
}
