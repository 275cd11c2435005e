package class

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/user"
)

var (
	ErrNotFound           = core.NewNotFoundError("class")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")

	errScheduleEndBeforeStart = "endTime must be after startTime"
	errNotATeacher            = "user is not a teacher"
	errNotAStudent            = "user is not a student"
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, filter QueryFilter) ([]Class, error)
		UpdateTuitionRate(ctx context.Context, id string, rate *int64) (Class, error)

		// SaveEnrollment activates the (student, class) enrollment, creating it if needed.
		SaveEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		DeactivateEnrollment(ctx context.Context, classID, studentID string) error
		IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)

		CreateSchedule(ctx context.Context, sch Schedule) (Schedule, error)
		QuerySchedules(ctx context.Context, classID string) ([]Schedule, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewClass) (Class, error)
		GetByID(ctx context.Context, id string) (Class, error)
		Query(ctx context.Context, filter QueryFilter) ([]Class, error)
		SetTuitionRate(ctx context.Context, id string, ut UpdateTuition) (Class, error)
		Enroll(ctx context.Context, classID string, ne NewEnrollment) (Enrollment, error)
		Unenroll(ctx context.Context, classID, studentID string) error
		IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
		AddSchedule(ctx context.Context, classID string, ns NewSchedule) (Schedule, error)
		Schedules(ctx context.Context, classID string) ([]Schedule, error)
	}

	service struct {
		repo     Repository
		usrSvc   user.Service
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, validate *validator.Validate) Service {
	return &service{repo: repo, usrSvc: usrSvc, validate: validate}
}

func (svc *service) Create(ctx context.Context, nc NewClass) (Class, error) {
	nc.Clean()
	if err := svc.validate.Struct(nc); err != nil {
		return Class{}, err
	}
	if err := svc.checkRole(ctx, "teacherId", nc.TeacherID, user.RoleTeacher, errNotATeacher); err != nil {
		return Class{}, err
	}

	cls, err := svc.repo.CreateClass(ctx, Class{
		ID:          uuid.NewString(),
		Name:        nc.Name,
		Subject:     nc.Subject,
		TeacherID:   nc.TeacherID,
		TuitionRate: nc.TuitionRate,
		CreatedAt:   core.NowFunc().UTC(),
	})
	return cls, errors.Wrap(err, "creating class")
}

func (svc *service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, filter)
}

func (svc *service) SetTuitionRate(ctx context.Context, id string, ut UpdateTuition) (Class, error) {
	if err := svc.validate.Struct(ut); err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateTuitionRate(ctx, id, ut.TuitionRate)
}

func (svc *service) Enroll(ctx context.Context, classID string, ne NewEnrollment) (Enrollment, error) {
	ne.StudentID = core.CleanString(ne.StudentID)
	if err := svc.validate.Struct(ne); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return Enrollment{}, err
	}
	if err := svc.checkRole(ctx, "studentId", ne.StudentID, user.RoleStudent, errNotAStudent); err != nil {
		return Enrollment{}, err
	}

	enr, err := svc.repo.SaveEnrollment(ctx, Enrollment{
		ID:         uuid.NewString(),
		StudentID:  ne.StudentID,
		ClassID:    classID,
		Active:     true,
		EnrolledAt: core.NowFunc().UTC(),
	})
	return enr, errors.Wrap(err, "saving enrollment")
}

func (svc *service) Unenroll(ctx context.Context, classID, studentID string) error {
	return svc.repo.DeactivateEnrollment(ctx, classID, studentID)
}

func (svc *service) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	return svc.repo.IsEnrolled(ctx, classID, studentID)
}

func (svc *service) AddSchedule(ctx context.Context, classID string, ns NewSchedule) (Schedule, error) {
	if err := svc.validate.Struct(ns); err != nil {
		return Schedule{}, err
	}
	start, err := ParseClock(ns.StartTime)
	if err != nil {
		return Schedule{}, core.NewValidationError(err, core.FieldError{Field: "startTime", Error: err.Error()})
	}
	end, err := ParseClock(ns.EndTime)
	if err != nil {
		return Schedule{}, core.NewValidationError(err, core.FieldError{Field: "endTime", Error: err.Error()})
	}
	if end <= start {
		return Schedule{}, core.NewValidationError(nil, core.FieldError{Field: "endTime", Error: errScheduleEndBeforeStart})
	}
	if _, err = svc.repo.GetClass(ctx, classID); err != nil {
		return Schedule{}, err
	}

	sch, err := svc.repo.CreateSchedule(ctx, Schedule{
		ID:        uuid.NewString(),
		ClassID:   classID,
		DayOfWeek: *ns.DayOfWeek,
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
	})
	return sch, errors.Wrap(err, "creating schedule")
}

func (svc *service) Schedules(ctx context.Context, classID string) ([]Schedule, error) {
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.QuerySchedules(ctx, classID)
}

// checkRole makes sure the user referenced by field exists and holds role.
func (svc *service) checkRole(ctx context.Context, field, userID, role, msg string) error {
	usr, err := svc.usrSvc.GetByID(ctx, userID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
		}
		return errors.Wrap(err, "getting user")
	}
	if usr.Role != role {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: msg})
	}
	return nil
}
