package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	echoapi "github.com/Nicko-rgb/server-notas/apps/api/echo"
	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/user"
	emailsvc "github.com/Nicko-rgb/server-notas/services/email"
	testutil "github.com/Nicko-rgb/server-notas/tests"
)

const testPwd = "LolC@t123"

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", testPwd, user.RoleEstudiante, nil, true)
	naughty := testutil.CreateUser(t, env.usrRepo, "Mario", "Vega", "99887766", "mario@test.edu", testPwd, user.RoleEstudiante, nil, false)

	credErr := marchallObj(t, httpErr{Error: "credenciales inválidas"})
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Login: "this field is required", Password: "this field is required"}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Login: "00000000", Password: testPwd}),
			wantData: credErr,
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Login: student.DNI, Password: "nope"}),
			wantData: credErr,
		},
		{
			name: "inactive account", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Login: naughty.DNI, Password: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "cuenta desactivada"}),
		},
		{
			name: "login with DNI", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Login: student.DNI, Password: testPwd}),
		},
		{
			name: "login with email (any case)", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Login: "PEDRO@test.edu", Password: testPwd}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)

	naughty := testutil.CreateUser(t, env.usrRepo, "Mario", "Vega", "99887766", "mario@test.edu", "", user.RoleEstudiante, nil, false)
	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, nil, true)

	// a token whose original issue date is older than the refresh threshold
	staleIat := time.Now().Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix()
	unrefreshableToken, err := echoapi.GenerateToken(echoapi.GetUserClaims(student, staleIat))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "cuenta desactivada"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "la sesión ha expirado"}),
		},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	env := setup(t)

	path := func(search, role string, isActive *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if role != "" {
			v.Add("role", role)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	docente := testutil.CreateUser(t, env.usrRepo, "Juan", "Pérez", "87654321", "juan@test.edu", "", user.RoleDocente, nil, true)
	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, nil, true)
	naughty := testutil.CreateUser(t, env.usrRepo, "Mario", "Vega", "99887766", "mario@test.edu", "", user.RoleEstudiante, nil, false)

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Get all", path: "/v1/users", token: adminToken, wantData: marchallList(t, admin, docente, student, naughty)},
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantData: empty},
		{name: "search=pérez", path: path("pérez", "", nil), token: adminToken, wantData: marchallList(t, docente)},
		{name: "search by DNI", path: path("1122", "", nil), token: adminToken, wantData: marchallList(t, student)},
		{name: "role=docente", path: path("", user.RoleDocente, nil), token: adminToken, wantData: marchallList(t, docente)},
		{name: "role (unknown)", path: path("", "lol", nil), token: adminToken, wantData: empty},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "role & is_active", path: path("", user.RoleEstudiante, bPtr(true)),
			token: adminToken, wantData: marchallList(t, student),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userCreate(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	docente := testutil.CreateUser(t, env.usrRepo, "Juan", "Pérez", "87654321", "juan@test.edu", "", user.RoleDocente, nil, true)
	carrera := testutil.CreateCarrera(t, env.academicRepo, "Desarrollo de Software", "ds", 6)
	adminToken := getToken(t, admin)

	newDocente := user.NewUser{
		DNI:             "44556677",
		Email:           "rosa@test.edu",
		FirstName:       "Rosa",
		LastName:        "Quispe",
		Role:            user.RoleDocente,
		Especialidad:    "Base de Datos",
		Password:        testPwd,
		PasswordConfirm: testPwd,
	}
	newEstudiante := user.NewUser{
		DNI:             "33445566",
		Email:           "ana@test.edu",
		FirstName:       "Ana",
		LastName:        "Flores",
		Role:            user.RoleEstudiante,
		CarreraID:       &carrera.ID,
		Password:        testPwd,
		PasswordConfirm: testPwd,
	}
	estudianteSinCarrera := newEstudiante
	estudianteSinCarrera.DNI = "22334455"
	estudianteSinCarrera.Email = "otro@test.edu"
	estudianteSinCarrera.CarreraID = nil

	dupDNI := newDocente
	dupDNI.DNI = docente.DNI
	dupDNI.Email = "dup@test.edu"

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", token: getToken(t, docente), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "invalid DNI", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, func() user.NewUser { u := newDocente; u.DNI = "123"; return u }()),
			wantData: marchallObj(t, map[string]string{"dni": "a DNI must be exactly 8 digits"}),
		},
		{
			name: "duplicate DNI", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, dupDNI),
			wantData: marchallObj(t, map[string]string{"dni": "ya existe un usuario con este DNI"}),
		},
		{
			name: "estudiante requires carrera", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, estudianteSinCarrera),
			wantData: marchallObj(t, map[string]string{"carrera_id": "a student must belong to a career"}),
		},
		{
			name: "weak password", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, func() user.NewUser {
				u := newDocente
				u.Password, u.PasswordConfirm = "lol", "lol"
				return u
			}()),
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{name: "docente created", token: adminToken, wantCode: http.StatusCreated, body: marchallObj(t, newDocente)},
		{name: "estudiante created", token: adminToken, wantCode: http.StatusCreated, body: marchallObj(t, newEstudiante)},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if usr.ID == 0 || !usr.IsActive {
					t.Errorf("failed! created user = %+v", usr)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userDetail(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, nil, true)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	detailPath := func(id int) string { return "/v1/users/" + strconv.Itoa(id) }
	bPtr := func(b bool) *bool { return &b }

	t.Run("retrieve: others hidden from non-admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, detailPath(admin.ID), studentToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
	t.Run("retrieve: own profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, detailPath(student.ID), studentToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, student)}, rec)
	})
	t.Run("retrieve: admin sees anyone", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, detailPath(student.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, student)}, rec)
	})
	t.Run("update: is_active is admin-only", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{IsActive: bPtr(false)})
		req, rec := newAuthRequest(http.MethodPut, detailPath(student.ID), studentToken, body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})
	t.Run("update: own phone", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Phone: "999888777"})
		req, rec := newAuthRequest(http.MethodPut, detailPath(student.ID), studentToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !usr.Phone.Valid || usr.Phone.String != "999888777" {
			t.Errorf("failed! phone = %v", usr.Phone)
		}
	})
	t.Run("destroy: admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, detailPath(student.ID), studentToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})
	t.Run("destroy: no self-delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, detailPath(admin.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})
	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, detailPath(student.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if _, err := env.usrSvc.GetByID(ctx, student.ID); err == nil {
			t.Error("failed! user still exists")
		}
	})
}

func Test_userApi_userResetPassword(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, nil, true)
	successData := marchallObj(t, echoapi.SuccessResponse{
		Success: "Si la dirección de correo está asociada a una cuenta activa en este sistema, " +
			"recibirá en breve un correo con instrucciones para restablecer su contraseña.",
	})

	pathRegex := regexp.MustCompile("/password-reset/.+/.+")

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK,
			body:     marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.FullName(), Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					if !strings.Contains(msg.TextContent, extra.to.Name) {
						t.Errorf("failed! text content does not contain recipient's name %q", extra.to.Name)
					}
					if !strings.Contains(msg.HTMLContent, extra.to.Name) {
						t.Errorf("failed! HTML content does not contain recipient's name %q", extra.to.Name)
					}
					if !pathRegex.MatchString(msg.TextContent) {
						t.Errorf("failed! text content does not match pathRegex %v", pathRegex)
					}
					if !pathRegex.MatchString(msg.HTMLContent) {
						t.Errorf("failed! HTML content does not match pathRegex %v", pathRegex)
					}
				} else if len(emailsvc.SentMessages) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
				}
			}
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "lol", user.RoleEstudiante, nil, true)
	validUID := user.EncodeUID(student)
	validToken, err := user.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := user.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	user.NowFunc = time.Now // reset

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{
				Token: reqMsg, UID: reqMsg,
				Password: "password must contain at least 8 characters", PasswordConfirm: reqMsg,
			}),
		},
		{
			name: "invalid pwd: min len", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 8 characters"}),
		},
		{
			name: "invalid pwd: not all numeric", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "12345678", PasswordConfirm: "12345678"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password cannot be entirely numeric"}),
		},
		{
			name: "invalid pwd: complexity", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "invalid pwd: too common", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "Contraseña123", PasswordConfirm: "Contraseña123"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password is too common"}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: testPwd, PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "bG9s", Password: testPwd, PasswordConfirm: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "OTk5", Password: testPwd, PasswordConfirm: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: testPwd, PasswordConfirm: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: testPwd, PasswordConfirm: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "token expired"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: testPwd, PasswordConfirm: testPwd}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "La contraseña ha sido restablecida."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := env.usrSvc.GetByID(context.Background(), student.ID)
				if err != nil {
					t.Fatalf("GetByID() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, student.PasswordHash) {
					t.Fatal("failed to update new password")
				}
			}
		})
	}
}
