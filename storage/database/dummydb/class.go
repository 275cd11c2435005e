package dummydb

import (
	"context"
	"sort"

	"github.com/napthedev/edura/core/class"
)

type classRepository struct {
	db *classTable
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.class}
}

func copyRate(rate *int64) *int64 {
	if rate == nil {
		return nil
	}
	r := *rate
	return &r
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.TuitionRate = copyRate(cls.TuitionRate)
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClass(_ context.Context, id string) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryClasses(_ context.Context, filter class.QueryFilter) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]class.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
			continue
		}
		if filter.StudentID != "" {
			enr, ok := repo.db.enrollments[enrollmentKey{filter.StudentID, c.ID}]
			if !ok || !enr.Active {
				continue
			}
		}
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Name == classes[j].Name {
			return classes[i].ID < classes[j].ID
		}
		return classes[i].Name < classes[j].Name
	})
	return classes, nil
}

func (repo *classRepository) UpdateTuitionRate(_ context.Context, id string, rate *int64) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.classes[id]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	cls.TuitionRate = copyRate(rate)
	return *cls, nil
}

func (repo *classRepository) SaveEnrollment(_ context.Context, enr class.Enrollment) (class.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[enr.ClassID]; !ok {
		return class.Enrollment{}, class.ErrNotFound
	}
	key := enrollmentKey{enr.StudentID, enr.ClassID}
	if existing, ok := repo.db.enrollments[key]; ok {
		existing.Active = true
		return *existing, nil
	}
	enr.Active = true
	repo.db.enrollments[key] = &enr
	return enr, nil
}

func (repo *classRepository) DeactivateEnrollment(_ context.Context, classID, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr, ok := repo.db.enrollments[enrollmentKey{studentID, classID}]
	if !ok || !enr.Active {
		return class.ErrEnrollmentNotFound
	}
	enr.Active = false
	return nil
}

func (repo *classRepository) IsEnrolled(_ context.Context, classID, studentID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enr, ok := repo.db.enrollments[enrollmentKey{studentID, classID}]
	return ok && enr.Active, nil
}

func (repo *classRepository) CreateSchedule(_ context.Context, sch class.Schedule) (class.Schedule, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[sch.ClassID]; !ok {
		return class.Schedule{}, class.ErrNotFound
	}
	repo.db.schedules[sch.ID] = &sch
	return sch, nil
}

func (repo *classRepository) QuerySchedules(_ context.Context, classID string) ([]class.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	schedules := make([]class.Schedule, 0)
	for _, s := range repo.db.schedules {
		if s.ClassID == classID {
			schedules = append(schedules, *s)
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].DayOfWeek == schedules[j].DayOfWeek {
			return schedules[i].StartTime < schedules[j].StartTime
		}
		return schedules[i].DayOfWeek < schedules[j].DayOfWeek
	})
	return schedules, nil
}
