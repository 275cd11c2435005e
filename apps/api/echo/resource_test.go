package echoapi_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/resource"
	"github.com/napthedev/edura/core/user"
	"github.com/napthedev/edura/testutil"
)

type uploadTest struct {
	name     string
	path     string
	token    string
	fields   map[string]string
	files    []upload
	wantCode int
	wantData []byte
}

func (e env) upload(t *testing.T, tt uploadTest) *http.Response {
	req, rec := newMultipartRequest(t, http.MethodPost, tt.path, tt.token, tt.fields, tt.files...)
	e.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
	return rec.Result()
}

func fieldErrs(t *testing.T, field, msg string) []byte {
	return marshalObj(t, map[string]string{field: msg})
}

func pdf(field, name string, size int) upload {
	return upload{field: field, name: name, contentType: "application/pdf", size: size}
}

func Test_resourceApi_resources(t *testing.T) {
	e := setup(t)
	manager := testutil.CreateUser(t, e.userRepo, "m1", "Manager", user.RoleManager)
	teacher := testutil.CreateUser(t, e.userRepo, "t1", "Teacher", user.RoleTeacher)
	other := testutil.CreateUser(t, e.userRepo, "t2", "Other", user.RoleTeacher)
	student := testutil.CreateUser(t, e.userRepo, "s1", "Student", user.RoleStudent)
	cls := testutil.CreateClass(t, e.classRepo, "c1", "Math", teacher.ID, nil)

	teacherToken := getToken(t, e.conf, teacher)
	form := map[string]string{"classId": cls.ID, "title": "Week 1 notes"}

	tests := []uploadTest{
		{
			name: "Student cannot upload", token: getToken(t, e.conf, student), fields: form,
			files: []upload{pdf("file", "notes.pdf", 10)}, wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Foreign teacher", token: getToken(t, e.conf, other), fields: form,
			files: []upload{pdf("file", "notes.pdf", 10)}, wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Missing file", token: teacherToken, fields: form,
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "file", "this field is required"),
		},
		{
			name: "Missing title", token: teacherToken, fields: map[string]string{"classId": cls.ID},
			files:    []upload{pdf("file", "notes.pdf", 10)},
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "title", "this field is required"),
		},
		{
			name: "Disallowed type", token: teacherToken, fields: form,
			files:    []upload{{field: "file", name: "notes.txt", contentType: "text/plain", size: 10}},
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(t, "file", `file type "text/plain" is not allowed; allowed types are PDF, JPEG, PNG, GIF and WEBP`),
		},
		{
			name: "Unknown class", token: teacherToken, fields: map[string]string{"classId": "nope", "title": "x"},
			files:    []upload{pdf("file", "notes.pdf", 10)},
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "classId", "class not found"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.path = "/api/resources"
			e.upload(t, tt)
		})
	}

	var res resource.Resource
	t.Run("Upload", func(t *testing.T) {
		resp := e.upload(t, uploadTest{
			path: "/api/resources", token: teacherToken, fields: form,
			files: []upload{{field: "file", name: "week 1.png", contentType: "image/png", size: 2048}}, wantCode: http.StatusCreated,
		})
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, cls.ID, res.ClassID)
		assert.Equal(t, teacher.ID, res.UploaderID)
		assert.Equal(t, "image/png", res.MimeType)
		assert.Equal(t, int64(2048), res.Size)
		assert.True(t, strings.HasPrefix(res.FileURL, e.conf.Storage.PublicBaseURL+"/resources/c1/"), res.FileURL)
		assert.True(t, strings.HasSuffix(res.FileURL, "-week_1.png"), res.FileURL)
	})

	tests2 := []httpTest{
		{
			name: "List", path: "/api/resources?classId=" + cls.ID, token: getToken(t, e.conf, student),
			wantCode: http.StatusOK, wantData: marshalList(t, res),
		},
		{
			name: "Foreign teacher cannot delete", method: http.MethodDelete, path: "/api/resources/" + res.ID,
			token: getToken(t, e.conf, other), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Manager deletes", method: http.MethodDelete, path: "/api/resources/" + res.ID,
			token: getToken(t, e.conf, manager), wantCode: http.StatusNoContent,
		},
		{
			name: "Gone", method: http.MethodDelete, path: "/api/resources/" + res.ID,
			token: getToken(t, e.conf, manager), wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "resource not found"}),
		},
		{
			name: "List (empty)", path: "/api/resources?classId=" + cls.ID, token: teacherToken,
			wantCode: http.StatusOK, wantData: marshalList(t),
		},
	}
	for _, tt := range tests2 {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.serve(tt))
		})
	}
}

func Test_resourceApi_lectures(t *testing.T) {
	e := setup(t)
	teacher := testutil.CreateUser(t, e.userRepo, "t1", "Teacher", user.RoleTeacher)
	manager := testutil.CreateUser(t, e.userRepo, "m1", "Manager", user.RoleManager)
	cls := testutil.CreateClass(t, e.classRepo, "c1", "Math", teacher.ID, nil)
	token := getToken(t, e.conf, teacher)
	form := map[string]string{"classId": cls.ID, "title": "Fractions", "description": "chapter 2"}

	tests := []uploadTest{
		{
			name: "Managers do not lecture", token: getToken(t, e.conf, manager), fields: form,
			files: []upload{pdf("files[]", "a.pdf", 10)}, wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "No file", token: token, fields: form,
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "files", "at least one file is required"),
		},
		{
			name: "File over 10MB", token: token, fields: form,
			files:    []upload{pdf("files[]", "a.pdf", 10), pdf("files[]", "big.pdf", resource.MaxLectureFileSize+1)},
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "files", `file "big.pdf" exceeds 10MB limit`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.path = "/api/lectures"
			e.upload(t, tt)
		})
	}

	t.Run("Create", func(t *testing.T) {
		resp := e.upload(t, uploadTest{
			path: "/api/lectures", token: token, fields: form,
			files:    []upload{pdf("files[]", "a.pdf", 10), pdf("files", "b.pdf", 20)},
			wantCode: http.StatusCreated,
		})
		var lec resource.Lecture
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&lec))
		assert.Equal(t, "Fractions", lec.Title)
		require.Len(t, lec.Files, 2)

		rec := e.serve(httpTest{method: http.MethodDelete, path: "/api/lectures/" + lec.ID, token: token})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_resourceApi_submissions(t *testing.T) {
	e := setup(t)
	teacher := testutil.CreateUser(t, e.userRepo, "t1", "Teacher", user.RoleTeacher)
	s1 := testutil.CreateUser(t, e.userRepo, "s1", "Student 1", user.RoleStudent)
	s2 := testutil.CreateUser(t, e.userRepo, "s2", "Student 2", user.RoleStudent)
	outsider := testutil.CreateUser(t, e.userRepo, "s3", "Outsider", user.RoleStudent)
	cls := testutil.CreateClass(t, e.classRepo, "c1", "Math", teacher.ID, nil)
	testutil.Enroll(t, e.classRepo, cls.ID, s1.ID)
	testutil.Enroll(t, e.classRepo, cls.ID, s2.ID)
	teacherToken := getToken(t, e.conf, teacher)

	rec := e.serve(httpTest{
		method: http.MethodPost, path: "/api/assignments", token: teacherToken,
		body: []byte(`{"classId": "c1", "title": "Homework 1", "dueDate": "2024-06-10T17:00:00Z"}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var asg resource.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asg))
	path := "/api/assignments/" + asg.ID + "/submissions"

	sixFiles := make([]upload, resource.MaxSubmissionFiles+1)
	for i := range sixFiles {
		sixFiles[i] = pdf("files[]", "page.pdf", 10)
	}

	tests := []uploadTest{
		{
			name: "Teachers do not submit", token: teacherToken, wantCode: http.StatusForbidden,
			wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Not enrolled", token: getToken(t, e.conf, outsider), fields: map[string]string{"content": "hi"},
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Too many files", token: getToken(t, e.conf, s1), files: sixFiles,
			wantCode: http.StatusBadRequest, wantData: fieldErrs(t, "files", "too many files (max 5)"),
		},
		{
			name: "Unknown assignment", token: getToken(t, e.conf, s1), fields: map[string]string{"content": "hi"},
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "assignment not found"}),
		},
		{
			name: "Submit (s1)", token: getToken(t, e.conf, s1), fields: map[string]string{"content": "my answer"},
			files: []upload{pdf("files[]", "answer.pdf", 100)}, wantCode: http.StatusCreated,
		},
		{
			name: "Submit without files (s2)", token: getToken(t, e.conf, s2), fields: map[string]string{"content": "done"},
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.path = path
			if tt.name == "Unknown assignment" {
				tt.path = "/api/assignments/nope/submissions"
			}
			e.upload(t, tt)
		})
	}

	countSubmissions := func(t *testing.T, token string) []resource.Submission {
		rec := e.serve(httpTest{path: path, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var subs []resource.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
		return subs
	}
	t.Run("Teacher sees all", func(t *testing.T) {
		assert.Len(t, countSubmissions(t, teacherToken), 2)
	})
	t.Run("Student sees their own", func(t *testing.T) {
		subs := countSubmissions(t, getToken(t, e.conf, s1))
		require.Len(t, subs, 1)
		assert.Equal(t, s1.ID, subs[0].StudentID)
		require.Len(t, subs[0].Files, 1)
		assert.Equal(t, "answer.pdf", subs[0].Files[0].FileName)
	})
}

func Test_uploadRateLimiter(t *testing.T) {
	e := setup(t, func(c *core.Config) { c.Server.UploadRateLimit = 1 })
	teacher := testutil.CreateUser(t, e.userRepo, "t1", "Teacher", user.RoleTeacher)
	token := getToken(t, e.conf, teacher)

	tt := uploadTest{path: "/api/resources", token: token, fields: map[string]string{"classId": "c1", "title": "x"}}
	tt.wantCode = http.StatusBadRequest
	e.upload(t, tt)

	tt.wantCode = http.StatusTooManyRequests
	tt.wantData = marshalObj(t, httpErr{Error: "rate limit exceeded"})
	e.upload(t, tt)

	// listing is not limited
	rec := e.serve(httpTest{path: "/api/resources?classId=c1", token: token})
	assert.Equal(t, http.StatusOK, rec.Code)
}
