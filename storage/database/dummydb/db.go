package dummydb

import (
	"sync"

	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/resource"
	"github.com/napthedev/edura/core/user"
)

// DB is an in-memory database honouring the same uniqueness rules as the postgres schema.
type (
	DB struct {
		user       *userTable
		class      *classTable
		billing    *billingTable
		attendance *attendanceTable
		resource   *resourceTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		classes     map[string]*class.Class
		enrollments map[enrollmentKey]*class.Enrollment
		schedules   map[string]*class.Schedule
	}

	enrollmentKey struct {
		studentID string
		classID   string
	}

	billingTable struct {
		sync.RWMutex
		table map[billingKey]*billing.Billing
	}

	billingKey struct {
		studentID string
		classID   string
		month     string
	}

	attendanceTable struct {
		sync.RWMutex
		table map[logKey]*attendance.Log
	}

	logKey struct {
		scheduleID string
		date       string
	}

	resourceTable struct {
		sync.RWMutex
		resources   map[string]*resource.Resource
		lectures    map[string]*resource.Lecture
		assignments map[string]*resource.Assignment
		submissions map[string]*resource.Submission
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		class: &classTable{
			classes:     make(map[string]*class.Class),
			enrollments: make(map[enrollmentKey]*class.Enrollment),
			schedules:   make(map[string]*class.Schedule),
		},
		billing:    &billingTable{table: make(map[billingKey]*billing.Billing)},
		attendance: &attendanceTable{table: make(map[logKey]*attendance.Log)},
		resource: &resourceTable{
			resources:   make(map[string]*resource.Resource),
			lectures:    make(map[string]*resource.Lecture),
			assignments: make(map[string]*resource.Assignment),
			submissions: make(map[string]*resource.Submission),
		},
	}
	return db, nil
}
