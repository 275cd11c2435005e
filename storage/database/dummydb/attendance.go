package dummydb

import (
	"context"
	"sort"

	"github.com/napthedev/edura/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) sessions(match func(attendance.ScheduledSession) bool) []attendance.ScheduledSession {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()

	sessions := make([]attendance.ScheduledSession, 0)
	for _, s := range repo.db.class.schedules {
		cls, ok := repo.db.class.classes[s.ClassID]
		if !ok {
			continue
		}
		sess := attendance.ScheduledSession{
			ScheduleID: s.ID,
			ClassID:    s.ClassID,
			TeacherID:  cls.TeacherID,
			DayOfWeek:  s.DayOfWeek,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
		}
		if match(sess) {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].EndTime == sessions[j].EndTime {
			return sessions[i].ScheduleID < sessions[j].ScheduleID
		}
		return sessions[i].EndTime < sessions[j].EndTime
	})
	return sessions
}

func (repo *attendanceRepository) QuerySessionsByDay(_ context.Context, dayOfWeek int) ([]attendance.ScheduledSession, error) {
	return repo.sessions(func(s attendance.ScheduledSession) bool { return s.DayOfWeek == dayOfWeek }), nil
}

func (repo *attendanceRepository) GetSession(_ context.Context, scheduleID string) (attendance.ScheduledSession, error) {
	sessions := repo.sessions(func(s attendance.ScheduledSession) bool { return s.ScheduleID == scheduleID })
	if len(sessions) == 0 {
		return attendance.ScheduledSession{}, attendance.ErrScheduleNotFound
	}
	return sessions[0], nil
}

func (repo *attendanceRepository) CreateMissedLog(_ context.Context, log attendance.Log) (bool, error) {
	repo.db.attendance.Lock()
	defer repo.db.attendance.Unlock()

	key := logKey{log.ScheduleID, log.SessionDate}
	if _, exists := repo.db.attendance.table[key]; exists {
		return false, nil
	}
	repo.db.attendance.table[key] = &log
	return true, nil
}

func (repo *attendanceRepository) SaveLog(_ context.Context, log attendance.Log) (attendance.Log, error) {
	repo.db.attendance.Lock()
	defer repo.db.attendance.Unlock()

	key := logKey{log.ScheduleID, log.SessionDate}
	if existing, ok := repo.db.attendance.table[key]; ok {
		existing.Status = log.Status
		existing.Notes = log.Notes
		existing.TeacherID = log.TeacherID
		return *existing, nil
	}
	repo.db.attendance.table[key] = &log
	return log, nil
}

func (repo *attendanceRepository) QueryLogs(_ context.Context, filter attendance.QueryFilter) ([]attendance.Log, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	logs := make([]attendance.Log, 0)
	for _, l := range repo.db.attendance.table {
		switch {
		case filter.ClassID != "" && l.ClassID != filter.ClassID,
			filter.TeacherID != "" && l.TeacherID != filter.TeacherID,
			filter.From != "" && l.SessionDate < filter.From,
			filter.To != "" && l.SessionDate > filter.To:
			continue
		}
		logs = append(logs, *l)
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].SessionDate == logs[j].SessionDate {
			return logs[i].CreatedAt.After(logs[j].CreatedAt)
		}
		return logs[i].SessionDate > logs[j].SessionDate
	})
	return logs, nil
}
