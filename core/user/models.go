package user

import (
	"time"

	"github.com/napthedev/edura/core"
)

// Roles, as issued by the auth service.
const (
	RoleManager = "manager"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var AllRoles = []string{RoleManager, RoleTeacher, RoleStudent}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is the local mirror of an account managed by the auth service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

func (u User) IsManager() bool { return u.Role == RoleManager }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

func (u User) Person() core.Person {
	return core.Person{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NewUser contains information needed to register a User.
type NewUser struct {
	ID    string `json:"id" validate:"required,max=128"`
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Clean() {
	nu.ID = core.CleanString(nu.ID)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
}

type QueryFilter struct {
	Role string `query:"role"`
}
