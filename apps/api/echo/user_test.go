package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	. "github.com/napthedev/edura/apps/api/echo"
	"github.com/napthedev/edura/core/user"
	"github.com/napthedev/edura/testutil"
)

func Test_authMiddleware(t *testing.T) {
	e := setup(t)
	manager := testutil.CreateUser(t, e.userRepo, "m1", "Manager", user.RoleManager)

	expired, err := GenerateToken([]byte(e.conf.AuthSecret), GetUserClaims(manager, -time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	forged, err := GenerateToken([]byte("not-the-secret"), GetUserClaims(manager, time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	noRole, err := GenerateToken([]byte(e.conf.AuthSecret), GetUserClaims(user.User{ID: "x", Role: "admin"}, time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	errInvalidToken := marshalObj(t, httpErr{Error: "invalid or expired token"})

	tests := []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "Expired token", path: "/api/users", token: expired, wantCode: http.StatusUnauthorized, wantData: errInvalidToken},
		{name: "Forged token", path: "/api/users", token: forged, wantCode: http.StatusUnauthorized, wantData: errInvalidToken},
		{name: "Unknown role", path: "/api/users", token: noRole, wantCode: http.StatusUnauthorized, wantData: errInvalidToken},
		{name: "Garbage", path: "/api/users", token: "a.b.c", wantCode: http.StatusUnauthorized, wantData: errInvalidToken},
		{name: "Valid token", path: "/api/users", token: getToken(t, e.conf, manager), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.serve(tt))
		})
	}
}

func Test_userApi(t *testing.T) {
	e := setup(t)
	mockNow(t, time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC))

	manager := testutil.CreateUser(t, e.userRepo, "m1", "Manager", user.RoleManager)
	teacher := testutil.CreateUser(t, e.userRepo, "t1", "Teacher", user.RoleTeacher)
	student := testutil.CreateUser(t, e.userRepo, "s1", "Student", user.RoleStudent)
	managerToken := getToken(t, e.conf, manager)

	newStudent := user.User{
		ID:        "s2",
		Name:      "Lan",
		Email:     "lan@edura.test",
		Role:      user.RoleStudent,
		CreatedAt: time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC),
	}

	tests := []httpTest{
		{
			name: "Manager required", method: http.MethodPost, path: "/api/users",
			token: getToken(t, e.conf, teacher), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Manager required (list)", path: "/api/users",
			token: getToken(t, e.conf, student), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Invalid data", method: http.MethodPost, path: "/api/users", token: managerToken,
			body:     []byte(`{"id": "s2", "name": "Lan", "email": "lan", "role": "admin"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"email": "email must be a valid email address",
				"role":  "role must be one of manager, teacher or student",
			}),
		},
		{
			name: "Missing fields", method: http.MethodPost, path: "/api/users", token: managerToken,
			body:     []byte(`{"id": "s2"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"name":  "this field is required",
				"email": "this field is required",
				"role":  "this field is required",
			}),
		},
		{
			name: "Malformed JSON", method: http.MethodPost, path: "/api/users", token: managerToken,
			body: []byte(`{"id": `), wantCode: http.StatusBadRequest,
		},
		{
			name: "Register", method: http.MethodPost, path: "/api/users", token: managerToken,
			body:     []byte(`{"id": "s2", "name": " Lan ", "email": "LAN@edura.test", "role": "Student"}`),
			wantCode: http.StatusCreated, wantData: marshalObj(t, newStudent),
		},
		{
			name: "Email taken", method: http.MethodPost, path: "/api/users", token: managerToken,
			body:     []byte(`{"id": "s3", "name": "Other", "email": "lan@edura.test", "role": "student"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "email is already in use"}),
		},
		{
			name: "Filter by role", path: "/api/users?role=student", token: managerToken,
			wantCode: http.StatusOK, wantData: marshalList(t, newStudent, student),
		},
		{
			name: "Unknown role", path: "/api/users?role=admin", token: managerToken,
			wantCode: http.StatusOK, wantData: marshalList(t),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.serve(tt))
		})
	}
}
