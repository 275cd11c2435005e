package echoapi_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/napthedev/edura/apps/api/echo"
	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/resource"
	"github.com/napthedev/edura/core/user"
	blobsvc "github.com/napthedev/edura/services/blob"
	"github.com/napthedev/edura/storage/database/dummydb"
	"github.com/napthedev/edura/testutil"
)

var (
	errMissingToken = httpErr{Error: "Unauthorized"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type env struct {
	conf      *core.Config
	app       Server
	userRepo  user.Repository
	classRepo class.Repository
	billRepo  billing.Repository
	attRepo   attendance.Repository
}

func setup(t *testing.T, confs ...func(*core.Config)) env {
	t.Helper()
	e, deps := newDeps(t, confs...)
	var err error
	e.app, err = NewServer(deps)
	require.NoError(t, err)
	return e
}

// newDeps wires the services on a dummy DB without starting the server, so a test can swap some out.
func newDeps(t *testing.T, confs ...func(*core.Config)) (env, ServerDeps) {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Storage.LocalDir = t.TempDir()
	for _, fn := range confs {
		fn(conf)
	}
	logger := testutil.NewLogger(conf)
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	db, err := dummydb.Open()
	require.NoError(t, err)
	e := env{
		conf:      conf,
		userRepo:  dummydb.NewUserRepository(db),
		classRepo: dummydb.NewClassRepository(db),
		billRepo:  dummydb.NewBillingRepository(db),
		attRepo:   dummydb.NewAttendanceRepository(db),
	}

	// set up services
	store, err := blobsvc.NewLocalStore(conf.Storage.LocalDir, conf.Storage.PublicBaseURL)
	require.NoError(t, err)
	usrSvc := user.NewService(e.userRepo, validate)
	classSvc := class.NewService(e.classRepo, usrSvc, validate)

	return e, ServerDeps{
		Conf:     conf,
		Logger:   logger,
		UserSvc:  usrSvc,
		ClassSvc: classSvc,
		BillingSvc: billing.NewService(e.billRepo, nil, logger, validate, billing.Options{
			Location: conf.Timezone,
			DueDay:   conf.Billing.DueDay,
		}),
		AttendanceSvc: attendance.NewService(e.attRepo, logger, validate, attendance.Options{
			Location:     conf.Timezone,
			GraceMinutes: conf.Attendance.GraceMinutes,
		}),
		ResourceSvc: resource.NewService(dummydb.NewResourceRepository(db), classSvc, store, logger, validate),
		Validate:    validate,
		Translator:  translator,
	}
}

// mockNow freezes core.NowFunc for the duration of the test.
func mockNow(t *testing.T, now time.Time) {
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (e env) serve(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	e.app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken([]byte(conf.AuthSecret), GetUserClaims(usr, time.Hour))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

type upload struct {
	field       string
	name        string
	contentType string
	size        int
}

// newMultipartRequest builds a multipart/form-data request holding fields & zero-filled files.
func newMultipartRequest(t *testing.T, method, path, token string, fields map[string]string, files ...upload) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(make([]byte, f.size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "body = %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data), "body = %s", rec.Body.String())
	return data
}
