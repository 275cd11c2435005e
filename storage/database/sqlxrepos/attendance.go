package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/attendance"
)

type (
	logRow struct {
		ID          string    `db:"log_id"`
		ScheduleID  string    `db:"schedule_id"`
		ClassID     string    `db:"class_id"`
		TeacherID   string    `db:"teacher_id"`
		SessionDate time.Time `db:"session_date"`
		Status      string    `db:"status"`
		Notes       string    `db:"notes"`
		CreatedAt   time.Time `db:"created_at"`
	}

	sessionRow struct {
		ScheduleID string `db:"schedule_id"`
		ClassID    string `db:"class_id"`
		TeacherID  string `db:"teacher_id"`
		DayOfWeek  int    `db:"day_of_week"`
		StartTime  string `db:"start_time"`
		EndTime    string `db:"end_time"`
	}
)

func (r logRow) toLog() attendance.Log {
	return attendance.Log{
		ID:          r.ID,
		ScheduleID:  r.ScheduleID,
		ClassID:     r.ClassID,
		TeacherID:   r.TeacherID,
		SessionDate: r.SessionDate.Format(dateLayout),
		Status:      r.Status,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r sessionRow) toSession() attendance.ScheduledSession {
	return attendance.ScheduledSession(r)
}

const selectSessions = `
	SELECT s.schedule_id, s.class_id, c.teacher_id, s.day_of_week, s.start_time, s.end_time
	FROM class_schedules s
	JOIN classes c ON c.class_id = s.class_id`

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) QuerySessionsByDay(ctx context.Context, dayOfWeek int) ([]attendance.ScheduledSession, error) {
	var rows []sessionRow
	err := repo.db.SelectContext(ctx, &rows, selectSessions+` WHERE s.day_of_week = $1 ORDER BY s.end_time, s.schedule_id`, dayOfWeek)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}

	sessions := make([]attendance.ScheduledSession, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toSession())
	}
	return sessions, nil
}

func (repo attendanceRepository) GetSession(ctx context.Context, scheduleID string) (attendance.ScheduledSession, error) {
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, selectSessions+` WHERE s.schedule_id = $1`, scheduleID); err != nil {
		return attendance.ScheduledSession{}, trapNoRowsErr(err, attendance.ErrScheduleNotFound, "getting session")
	}
	return row.toSession(), nil
}

func (repo attendanceRepository) CreateMissedLog(ctx context.Context, log attendance.Log) (bool, error) {
	const q = `
		INSERT INTO attendance_logs (log_id, schedule_id, class_id, teacher_id, session_date, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT attendance_logs_schedule_date_key DO NOTHING`

	res, err := repo.db.ExecContext(ctx, q,
		log.ID, log.ScheduleID, log.ClassID, log.TeacherID, log.SessionDate, log.Status, log.Notes, log.CreatedAt,
	)
	if err != nil {
		return false, errors.Wrap(err, "inserting missed log")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "inserting missed log")
	}
	return n > 0, nil
}

func (repo attendanceRepository) SaveLog(ctx context.Context, log attendance.Log) (attendance.Log, error) {
	const q = `
		INSERT INTO attendance_logs (log_id, schedule_id, class_id, teacher_id, session_date, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT attendance_logs_schedule_date_key DO UPDATE
		SET status = EXCLUDED.status, notes = EXCLUDED.notes, teacher_id = EXCLUDED.teacher_id
		RETURNING *`

	var row logRow
	err := repo.db.QueryRowxContext(ctx, q,
		log.ID, log.ScheduleID, log.ClassID, log.TeacherID, log.SessionDate, log.Status, log.Notes, log.CreatedAt,
	).StructScan(&row)
	if err != nil {
		return attendance.Log{}, errors.Wrap(err, "saving attendance log")
	}
	return row.toLog(), nil
}

func logsQuery(filter attendance.QueryFilter) sq.SelectBuilder {
	q := psql.Select("*").From("attendance_logs")
	if filter.ClassID != "" {
		q = q.Where(sq.Eq{"class_id": filter.ClassID})
	}
	if filter.TeacherID != "" {
		q = q.Where(sq.Eq{"teacher_id": filter.TeacherID})
	}
	if filter.From != "" {
		q = q.Where(sq.GtOrEq{"session_date": filter.From})
	}
	if filter.To != "" {
		q = q.Where(sq.LtOrEq{"session_date": filter.To})
	}
	return q.OrderBy("session_date DESC", "created_at DESC")
}

func (repo attendanceRepository) QueryLogs(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Log, error) {
	var rows []logRow
	err := selectBuilt(ctx, repo.db, &rows, logsQuery(filter))
	if empty, err := trapListErr(err, "querying attendance logs"); empty || err != nil {
		return []attendance.Log{}, err
	}

	logs := make([]attendance.Log, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, r.toLog())
	}
	return logs, nil
}
