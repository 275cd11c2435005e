package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/napthedev/edura/core/class"
)

type (
	classRow struct {
		ID          string     `db:"class_id"`
		Name        string     `db:"name"`
		Subject     string     `db:"subject"`
		TeacherID   string     `db:"teacher_id"`
		TuitionRate null.Int64 `db:"tuition_rate"`
		CreatedAt   time.Time  `db:"created_at"`
	}

	enrollmentRow struct {
		ID         string    `db:"enrollment_id"`
		StudentID  string    `db:"student_id"`
		ClassID    string    `db:"class_id"`
		Active     bool      `db:"active"`
		EnrolledAt time.Time `db:"enrolled_at"`
	}

	scheduleRow struct {
		ID        string `db:"schedule_id"`
		ClassID   string `db:"class_id"`
		DayOfWeek int    `db:"day_of_week"`
		StartTime string `db:"start_time"`
		EndTime   string `db:"end_time"`
	}
)

func (r classRow) toClass() class.Class {
	return class.Class{
		ID:          r.ID,
		Name:        r.Name,
		Subject:     r.Subject,
		TeacherID:   r.TeacherID,
		TuitionRate: r.TuitionRate.Ptr(),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r enrollmentRow) toEnrollment() class.Enrollment {
	return class.Enrollment{
		ID:         r.ID,
		StudentID:  r.StudentID,
		ClassID:    r.ClassID,
		Active:     r.Active,
		EnrolledAt: r.EnrolledAt.UTC(),
	}
}

func (r scheduleRow) toSchedule() class.Schedule {
	return class.Schedule{
		ID:        r.ID,
		ClassID:   r.ClassID,
		DayOfWeek: r.DayOfWeek,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{db: db}
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	const q = `
		INSERT INTO classes (class_id, name, subject, teacher_id, tuition_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`

	var row classRow
	err := repo.db.QueryRowxContext(ctx, q,
		cls.ID, cls.Name, cls.Subject, cls.TeacherID, null.Int64FromPtr(cls.TuitionRate), cls.CreatedAt,
	).StructScan(&row)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return row.toClass(), nil
}

func (repo classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	var row classRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM classes WHERE class_id = $1`, id); err != nil {
		return class.Class{}, trapNoRowsErr(err, class.ErrNotFound, "getting class")
	}
	return row.toClass(), nil
}

func classesQuery(filter class.QueryFilter) sq.SelectBuilder {
	q := psql.Select("c.*").From("classes c")
	if filter.TeacherID != "" {
		q = q.Where(sq.Eq{"c.teacher_id": filter.TeacherID})
	}
	if filter.StudentID != "" {
		q = q.Where("EXISTS (SELECT 1 FROM enrollments e WHERE e.class_id = c.class_id AND e.active AND e.student_id = ?)", filter.StudentID)
	}
	return q.OrderBy("c.name", "c.class_id")
}

func (repo classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter) ([]class.Class, error) {
	var rows []classRow
	err := selectBuilt(ctx, repo.db, &rows, classesQuery(filter))
	if empty, err := trapListErr(err, "querying classes"); empty || err != nil {
		return []class.Class{}, err
	}

	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toClass())
	}
	return classes, nil
}

func (repo classRepository) UpdateTuitionRate(ctx context.Context, id string, rate *int64) (class.Class, error) {
	var row classRow
	err := repo.db.QueryRowxContext(ctx,
		`UPDATE classes SET tuition_rate = $2 WHERE class_id = $1 RETURNING *`, id, null.Int64FromPtr(rate),
	).StructScan(&row)
	if err != nil {
		return class.Class{}, trapNoRowsErr(err, class.ErrNotFound, "updating tuition rate")
	}
	return row.toClass(), nil
}

func (repo classRepository) SaveEnrollment(ctx context.Context, enr class.Enrollment) (class.Enrollment, error) {
	const q = `
		INSERT INTO enrollments (enrollment_id, student_id, class_id, active, enrolled_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (student_id, class_id) DO UPDATE SET active = TRUE
		RETURNING *`

	var row enrollmentRow
	err := repo.db.QueryRowxContext(ctx, q, enr.ID, enr.StudentID, enr.ClassID, enr.EnrolledAt).StructScan(&row)
	if err != nil {
		if pqCode(err) == codeForeignKeyViolated {
			return class.Enrollment{}, class.ErrNotFound
		}
		return class.Enrollment{}, errors.Wrap(err, "saving enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo classRepository) DeactivateEnrollment(ctx context.Context, classID, studentID string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE enrollments SET active = FALSE WHERE class_id = $1 AND student_id = $2 AND active`, classID, studentID,
	)
	if err != nil {
		return trapNoRowsErr(err, class.ErrEnrollmentNotFound, "deactivating enrollment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deactivating enrollment")
	}
	if n == 0 {
		return class.ErrEnrollmentNotFound
	}
	return nil
}

func (repo classRepository) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var ok bool
	err := repo.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE class_id = $1 AND student_id = $2 AND active)`, classID, studentID,
	)
	if empty, err := trapListErr(err, "checking enrollment"); empty || err != nil {
		return false, err
	}
	return ok, nil
}

func (repo classRepository) CreateSchedule(ctx context.Context, sch class.Schedule) (class.Schedule, error) {
	const q = `
		INSERT INTO class_schedules (schedule_id, class_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	var row scheduleRow
	err := repo.db.QueryRowxContext(ctx, q, sch.ID, sch.ClassID, sch.DayOfWeek, sch.StartTime, sch.EndTime).StructScan(&row)
	if err != nil {
		return class.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return row.toSchedule(), nil
}

func (repo classRepository) QuerySchedules(ctx context.Context, classID string) ([]class.Schedule, error) {
	var rows []scheduleRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM class_schedules WHERE class_id = $1 ORDER BY day_of_week, start_time`, classID,
	)
	if empty, err := trapListErr(err, "querying schedules"); empty || err != nil {
		return []class.Schedule{}, err
	}

	schedules := make([]class.Schedule, 0, len(rows))
	for _, r := range rows {
		schedules = append(schedules, r.toSchedule())
	}
	return schedules, nil
}
