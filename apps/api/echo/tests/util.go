package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/Nicko-rgb/server-notas/apps/api/echo"
	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/grade"
	"github.com/Nicko-rgb/server-notas/core/user"
	emailsvc "github.com/Nicko-rgb/server-notas/services/email"
	logsvc "github.com/Nicko-rgb/server-notas/services/logger"
	dummydb "github.com/Nicko-rgb/server-notas/storage/database/dummy"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permiso denegado"}
	errNotFound     = httpErr{Error: "no encontrado"}
)

type testEnv struct {
	app Server

	usrRepo      user.Repository
	academicRepo academic.Repository
	gradeRepo    grade.Repository
	matRepo      enrollment.Repository

	usrSvc user.Service
}

// setup builds a Server on a fresh in-memory DB.
func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	env := &testEnv{
		usrRepo:      dummydb.NewUserRepository(db),
		academicRepo: dummydb.NewAcademicRepository(db),
		gradeRepo:    dummydb.NewGradeRepository(db),
		matRepo:      dummydb.NewMatriculaRepository(db),
	}

	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()
	env.usrSvc = user.NewServiceMock(env.usrRepo, mailSvc, logger)
	academicSvc := academic.NewService(env.academicRepo)
	gradeSvc := grade.NewService(env.gradeRepo)
	matSvc := enrollment.NewService(env.matRepo, env.usrSvc, academicSvc)

	env.app = NewServer(&Options{
		DisableReqLogs: true,
		UserSvc:        env.usrSvc,
		AcademicSvc:    academicSvc,
		GradeSvc:       gradeSvc,
		MatriculaSvc:   matSvc,
		MailSvc:        mailSvc,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: func() {},
	})
	return env
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

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
