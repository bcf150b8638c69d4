package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/tests"
)

var (
	errMissingToken = httpErr{Error: classroom.ErrTokenMissing.Error()}
	errInvalidToken = httpErr{Error: classroom.ErrTokenInvalid.Error()}
)

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
}

func setup(t *testing.T) (*Server, *classroom.Service) {
	t.Helper()
	svc, _ := testutil.NewClassroomService(t)
	app := NewServer(ServerDeps{
		Conf:         testutil.NewConfig(),
		Logger:       core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
		ClassroomSvc: svc,
	})
	return app, svc
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
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

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decodeBody() failed: %v", err)
	}
}

func newClassroomBody(t *testing.T, name string) []byte {
	return marchallObj(t, classroom.NewClassroom{
		Name:           name,
		Password:       "pass1234",
		SecretQuestion: "What is your favorite number?",
		SecretAnswer:   "forty-two",
	})
}

func Test_classroomApi_create(t *testing.T) {
	app, _ := setup(t)

	req, rec := newRequest(http.MethodPost, "/v1/classrooms", newClassroomBody(t, "Math 4B"))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	raw := rec.Body.String()
	for _, secret := range []string{"passwordHash", "passwordSalt", "secretAnswerHash", "secretAnswerSalt"} {
		if strings.Contains(raw, secret) {
			t.Errorf("create leaked %q in response body", secret)
		}
	}

	var resp TokenResponse
	decodeBody(t, rec, &resp)
	if resp.Classroom.ID != "CLS-MATH-4B" {
		t.Errorf("create classroom id = %v, want CLS-MATH-4B", resp.Classroom.ID)
	}
	if len(resp.TeacherToken) != 32 {
		t.Errorf("create teacherToken length = %d, want 32", len(resp.TeacherToken))
	}

	tests := []httpTest{
		{
			name: "duplicate name", method: http.MethodPost, path: "/v1/classrooms", body: newClassroomBody(t, "math 4b"),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: classroom.ErrClassroomExists.Error()}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/classrooms", body: []byte(`{"className": "Sci 1"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"password":       "this field is required",
				"secretQuestion": "this field is required",
				"secretAnswer":   "this field is required",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classroomApi_retrieve(t *testing.T) {
	app, svc := setup(t)
	cls, _ := testutil.CreateClassroom(t, svc, "Math 4B", "pass1234", "What is your favorite number?", "forty-two")

	tests := []httpTest{
		{
			name: "unknown classroom", method: http.MethodGet, path: "/v1/classrooms/CLS-NOPE",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: classroom.ErrNotFound.Error()}),
		},
		{
			name: "found", method: http.MethodGet, path: "/v1/classrooms/" + cls.ID,
			wantCode: http.StatusOK, wantData: marchallObj(t, cls),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classroomApi_login(t *testing.T) {
	app, svc := setup(t)
	cls, initialToken := testutil.CreateClassroom(t, svc, "Math 4B", "pass1234", "What is your favorite number?", "forty-two")

	tests := []httpTest{
		{
			name: "missing password", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"password": "this field is required"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/login",
			body:     []byte(`{"password": "nope"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: classroom.ErrBadCredentials.Error()}),
		},
		{
			name: "unknown classroom", method: http.MethodPost, path: "/v1/classrooms/CLS-NOPE/login",
			body:     []byte(`{"password": "pass1234"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: classroom.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("successful login rotates the token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/login", []byte(`{"password": "pass1234"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("login failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var resp TokenResponse
		decodeBody(t, rec, &resp)
		if resp.TeacherToken == "" || resp.TeacherToken == initialToken {
			t.Errorf("login teacherToken = %q, want a fresh token", resp.TeacherToken)
		}

		// the initial token must now be rejected
		req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students", initialToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errInvalidToken)}, rec)
	})
}

func Test_classroomApi_passwordReset(t *testing.T) {
	app, svc := setup(t)
	cls, _ := testutil.CreateClassroom(t, svc, "Math 4B", "pass1234", "What is your favorite number?", "forty-two")

	t.Run("secret question", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/classrooms/"+cls.ID+"/secret-question")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SecretQuestionResponse{SecretQuestion: "What is your favorite number?"}),
		}, rec)
	})

	tests := []httpTest{
		{
			name: "wrong secret answer", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/password-reset",
			body:     []byte(`{"secretAnswer": "nope", "newPassword": "newpass"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: classroom.ErrBadSecretAnswer.Error()}),
		},
		{
			name: "new password too short", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/password-reset",
			body:     []byte(`{"secretAnswer": "forty-two", "newPassword": "abc"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "reset ok", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/password-reset",
			body:     []byte(`{"secretAnswer": "forty-two", "newPassword": "newpass"}`),
			wantCode: http.StatusOK, wantData: marchallObj(t, MessageResponse{Message: "password reset successfully"}),
		},
		{
			name: "old password rejected", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/login",
			body:     []byte(`{"password": "pass1234"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: classroom.ErrBadCredentials.Error()}),
		},
		{
			name: "new password accepted", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/login",
			body:     []byte(`{"password": "newpass"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classroomApi_joinAndSetName(t *testing.T) {
	app, svc := setup(t)
	cls, token := testutil.CreateClassroom(t, svc, "Math 4B", "pass1234", "What is your favorite number?", "forty-two")
	st := testutil.AddStudent(t, svc, cls.ID, token)

	joinBody := func(code string) []byte { return []byte(fmt.Sprintf(`{"accessCode": %q}`, code)) }

	tests := []httpTest{
		{
			name: "bad access code", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/join", body: joinBody("0000"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: classroom.ErrBadAccessCode.Error()}),
		},
		{
			name: "missing access code", method: http.MethodPost, path: "/v1/classrooms/" + cls.ID + "/join", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"accessCode": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("join ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/join", joinBody(st.AccessCode))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("join failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var resp JoinResponse
		decodeBody(t, rec, &resp)
		if resp.Student.ID != st.ID {
			t.Errorf("join student = %v, want %v", resp.Student.ID, st.ID)
		}
	})

	t.Run("set name", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"accessCode": %q, "name": "Aisha"}`, st.AccessCode))
		req, rec := newRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students/name", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("set name failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var named classroom.Student
		decodeBody(t, rec, &named)
		if named.Name == nil || *named.Name != "Aisha" {
			t.Errorf("set name = %v, want Aisha", named.Name)
		}
	})

	t.Run("set name too short", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"accessCode": %q, "name": "A"}`, st.AccessCode))
		req, rec := newRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students/name", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_classroomApi_authRequired(t *testing.T) {
	app, svc := setup(t)
	cls, _ := testutil.CreateClassroom(t, svc, "Math 4B", "pass1234", "What is your favorite number?", "forty-two")

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/classrooms/" + cls.ID + "/students"},
		{http.MethodPut, "/v1/classrooms/" + cls.ID + "/students/S-ABCD1234/score"},
		{http.MethodDelete, "/v1/classrooms/" + cls.ID + "/students/S-ABCD1234"},
		{http.MethodPost, "/v1/classrooms/" + cls.ID + "/reset-scores"},
		{http.MethodPut, "/v1/classrooms/" + cls.ID + "/announcement"},
		{http.MethodDelete, "/v1/classrooms/" + cls.ID},
	}
	for _, ep := range protected {
		t.Run("no token "+ep.method+" "+ep.path, func(t *testing.T) {
			req, rec := newRequest(ep.method, ep.path, []byte(`{}`))
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
		})
		t.Run("bad token "+ep.method+" "+ep.path, func(t *testing.T) {
			req, rec := newAuthRequest(ep.method, ep.path, "deadbeef", []byte(`{}`))
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errInvalidToken)}, rec)
		})
	}
}

func Test_classroomApi_teacherFlow(t *testing.T) {
	app, svc := setup(t)
	cls, token := testutil.CreateClassroom(t, svc, "Math 4B", "pass1234", "What is your favorite number?", "forty-two")

	var st classroom.Student

	t.Run("add student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/students", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add student failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var resp NewStudentResponse
		decodeBody(t, rec, &resp)
		if resp.NewStudent.AccessCode == "" {
			t.Errorf("add student returned no access code")
		}
		if len(resp.UpdatedClassroom.Students) != 1 {
			t.Errorf("add student roster size = %d, want 1", len(resp.UpdatedClassroom.Students))
		}
		st = resp.NewStudent
	})

	t.Run("update score", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/classrooms/"+cls.ID+"/students/"+st.ID+"/score", token, []byte(`{"score": 7}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("update score failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var updated classroom.Classroom
		decodeBody(t, rec, &updated)
		if got := updated.FindStudent(st.ID).Score; got != 7 {
			t.Errorf("update score = %d, want 7", got)
		}
	})

	t.Run("update score unknown student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/classrooms/"+cls.ID+"/students/S-NOPE/score", token, []byte(`{"score": 7}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: classroom.ErrStudentNotFound.Error()}),
		}, rec)
	})

	t.Run("reset scores", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms/"+cls.ID+"/reset-scores", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("reset scores failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var updated classroom.Classroom
		decodeBody(t, rec, &updated)
		got := updated.FindStudent(st.ID)
		if got.Score != 0 || len(got.ScoreHistory) != 1 || got.ScoreHistory[0].Score != 7 {
			t.Errorf("reset scores student = %+v, want zeroed score and archived 7", got)
		}
	})

	t.Run("announcement", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/classrooms/"+cls.ID+"/announcement", token, []byte(`{"announcement": "Test on Friday!"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("announcement failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var updated classroom.Classroom
		decodeBody(t, rec, &updated)
		if updated.Announcement == nil || *updated.Announcement != "Test on Friday!" {
			t.Errorf("announcement = %v, want Test on Friday!", updated.Announcement)
		}
	})

	t.Run("remove student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/classrooms/"+cls.ID+"/students/"+st.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("remove student failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
		var updated classroom.Classroom
		decodeBody(t, rec, &updated)
		if len(updated.Students) != 0 {
			t.Errorf("remove student roster size = %d, want 0", len(updated.Students))
		}
	})

	t.Run("delete classroom", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/classrooms/"+cls.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MessageResponse{Message: "classroom deleted successfully"}),
		}, rec)

		req, rec = newRequest(http.MethodGet, "/v1/classrooms/"+cls.ID)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: classroom.ErrNotFound.Error()}),
		}, rec)
	})
}
