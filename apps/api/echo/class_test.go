package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/user"
	"github.com/napthedev/edura/testutil"
)

func Test_classApi(t *testing.T) {
	e := setup(t)
	manager := testutil.CreateUser(t, e.userRepo, "m1", "Manager", user.RoleManager)
	teacher := testutil.CreateUser(t, e.userRepo, "t1", "Teacher", user.RoleTeacher)
	other := testutil.CreateUser(t, e.userRepo, "t2", "Other", user.RoleTeacher)
	student := testutil.CreateUser(t, e.userRepo, "s1", "Student", user.RoleStudent)
	history := testutil.CreateClass(t, e.classRepo, "c0", "History", other.ID, nil)
	managerToken := getToken(t, e.conf, manager)
	studentToken := getToken(t, e.conf, student)

	rec := e.serve(httpTest{
		method: http.MethodPost, path: "/api/classes", token: managerToken,
		body: []byte(`{"name": "Math", "subject": "Algebra", "teacherId": "t1", "tuitionRate": 500000}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var math class.Class
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &math))
	require.NotNil(t, math.TuitionRate)
	assert.Equal(t, int64(500000), *math.TuitionRate)
	detail := "/api/classes/" + math.ID

	tests := []httpTest{
		{
			name: "Manager required", method: http.MethodPost, path: "/api/classes", token: getToken(t, e.conf, teacher),
			body: []byte(`{"name": "Math", "teacherId": "t1"}`), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Teacher must be a teacher", method: http.MethodPost, path: "/api/classes", token: managerToken,
			body:     []byte(`{"name": "Math", "teacherId": "s1"}`),
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "teacherId", "user is not a teacher"),
		},
		{name: "Manager sees all", path: "/api/classes", token: managerToken, wantCode: http.StatusOK, wantData: marshalList(t, history, math)},
		{name: "Teacher sees their own", path: "/api/classes", token: getToken(t, e.conf, teacher), wantCode: http.StatusOK, wantData: marshalList(t, math)},
		{name: "Student sees none yet", path: "/api/classes", token: studentToken, wantCode: http.StatusOK, wantData: marshalList(t)},
		{
			name: "Enroll", method: http.MethodPost, path: detail + "/enrollments", token: managerToken,
			body: []byte(`{"studentId": "s1"}`), wantCode: http.StatusCreated,
		},
		{
			name: "Enroll in unknown class", method: http.MethodPost, path: "/api/classes/nope/enrollments", token: managerToken,
			body: []byte(`{"studentId": "s1"}`), wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "class not found"}),
		},
		{name: "Student sees enrolled", path: "/api/classes", token: studentToken, wantCode: http.StatusOK, wantData: marshalList(t, math)},
		{
			name: "Clear tuition", method: http.MethodPatch, path: detail + "/tuition", token: managerToken,
			body: []byte(`{"tuitionRate": null}`), wantCode: http.StatusOK,
		},
		{
			name: "Negative tuition", method: http.MethodPatch, path: detail + "/tuition", token: managerToken,
			body:     []byte(`{"tuitionRate": -5}`),
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "tuitionRate", "tuitionRate must be 0 or greater"),
		},
		{
			name: "Bad schedule time", method: http.MethodPost, path: detail + "/schedules", token: managerToken,
			body:     []byte(`{"dayOfWeek": 1, "startTime": "8am", "endTime": "09:00"}`),
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "startTime", "startTime must be a time of day formatted as HH:MM"),
		},
		{
			name: "Schedule ends before start", method: http.MethodPost, path: detail + "/schedules", token: managerToken,
			body: []byte(`{"dayOfWeek": 1, "startTime": "10:00", "endTime": "09:00"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "Add schedule", method: http.MethodPost, path: detail + "/schedules", token: managerToken,
			body: []byte(`{"dayOfWeek": 1, "startTime": "08:00", "endTime": "09:30"}`), wantCode: http.StatusCreated,
		},
		{
			name: "Unenroll", method: http.MethodDelete, path: detail + "/enrollments/s1", token: managerToken,
			wantCode: http.StatusNoContent,
		},
		{
			name: "Unenroll twice", method: http.MethodDelete, path: detail + "/enrollments/s1", token: managerToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "enrollment not found"}),
		},
		{name: "Student no longer sees it", path: "/api/classes", token: studentToken, wantCode: http.StatusOK, wantData: marshalList(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.serve(tt))
		})
	}

	t.Run("List schedules", func(t *testing.T) {
		rec := e.serve(httpTest{path: detail + "/schedules", token: studentToken})
		require.Equal(t, http.StatusOK, rec.Code)
		var schedules []class.Schedule
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schedules))
		require.Len(t, schedules, 1)
		assert.Equal(t, "08:00", schedules[0].StartTime)
		assert.Equal(t, 1, schedules[0].DayOfWeek)
	})
}
