package tests

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	echoapi "github.com/Nicko-rgb/server-notas/apps/api/echo"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/user"
	testutil "github.com/Nicko-rgb/server-notas/tests"
)

func Test_matriculaApi_enroll(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	adminToken := getToken(t, admin)

	carrera := testutil.CreateCarrera(t, env.academicRepo, "Desarrollo de Software", "ds", 6)
	otraCarrera := testutil.CreateCarrera(t, env.academicRepo, "Contabilidad", "cont", 6)
	cicloI := testutil.CreateCiclo(t, env.academicRepo, carrera.ID, "Ciclo I", 1, true)
	cicloII := testutil.CreateCiclo(t, env.academicRepo, carrera.ID, "Ciclo II", 2, true)
	otroCiclo := testutil.CreateCiclo(t, env.academicRepo, otraCarrera.ID, "Ciclo I", 1, true)

	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, &carrera.ID, true)
	sinCarrera := testutil.CreateUser(t, env.usrRepo, "Lucía", "Torres", "55667788", "lucia@test.edu", "", user.RoleEstudiante, nil, true)

	enrollBody := func(estudianteID, cicloID int) []byte {
		return marchallObj(t, enrollment.NewMatricula{EstudianteID: estudianteID, CicloID: cicloID})
	}

	t.Run("admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/matriculas", getToken(t, student), enrollBody(student.ID, cicloI.ID))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})
	t.Run("skipping the chain is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/matriculas", adminToken, enrollBody(student.ID, cicloII.ID))
		env.app.ServeHTTP(rec, req)
		wantData := marchallObj(t, httpErr{Error: "No se puede matricular en el ciclo Ciclo II. Debe completar primero el ciclo Ciclo I"})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})
	t.Run("carrera mismatch", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/matriculas", adminToken, enrollBody(student.ID, otroCiclo.ID))
		env.app.ServeHTTP(rec, req)
		wantData := marchallObj(t, map[string]string{"ciclo_id": "el ciclo no pertenece a la carrera del estudiante"})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})
	t.Run("estudiante sin carrera", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/matriculas", adminToken, enrollBody(sinCarrera.ID, cicloI.ID))
		env.app.ServeHTTP(rec, req)
		wantData := marchallObj(t, map[string]string{"estudiante_id": "el estudiante no tiene carrera asignada"})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})

	var mat enrollment.Matricula
	t.Run("enroll", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/matriculas", adminToken, enrollBody(student.ID, cicloI.ID))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &mat); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !strings.HasPrefix(mat.CodigoMatricula, "MAT-") {
			t.Errorf("failed! codigo = %q", mat.CodigoMatricula)
		}
	})
	t.Run("already enrolled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/matriculas", adminToken, enrollBody(student.ID, cicloI.ID))
		env.app.ServeHTTP(rec, req)
		wantData := marchallObj(t, httpErr{Error: "el estudiante ya está matriculado en este ciclo"})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})
	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/matriculas/"+strconv.Itoa(mat.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, mat)}, rec)
	})
	t.Run("query by ciclo", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/matriculas/ciclo/"+strconv.Itoa(cicloI.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mat)}, rec)
	})
	t.Run("query by estudiante search", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/matriculas?search=pedro", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mat)}, rec)
	})
	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/matriculas/"+strconv.Itoa(mat.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		// matriculas are removed for good
		req, rec = newAuthRequest(http.MethodGet, "/v1/matriculas/"+strconv.Itoa(mat.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
}

func Test_matriculaApi_disponibles(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	carrera := testutil.CreateCarrera(t, env.academicRepo, "Desarrollo de Software", "ds", 6)
	cicloI := testutil.CreateCiclo(t, env.academicRepo, carrera.ID, "Ciclo I", 1, true)
	cicloII := testutil.CreateCiclo(t, env.academicRepo, carrera.ID, "Ciclo II", 2, true)
	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, &carrera.ID, true)
	other := testutil.CreateUser(t, env.usrRepo, "Ana", "Flores", "33445566", "ana@test.edu", "", user.RoleEstudiante, &carrera.ID, true)
	testutil.CreateMatricula(t, env.matRepo, student.ID, cicloI.ID)

	path := func(id int) string { return "/v1/matriculas/disponibles/" + strconv.Itoa(id) }

	t.Run("students may only see their own", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path(student.ID), getToken(t, other))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})
	t.Run("unknown estudiante", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path(999), getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
	t.Run("own availability", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path(student.ID), getToken(t, student))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var resp echoapi.DisponiblesResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if resp.EstudianteID != student.ID || resp.Estudiante != student.FullName() || resp.CarreraID != carrera.ID {
			t.Errorf("failed! resp = %+v", resp)
		}
		if len(resp.Ciclos) != 2 {
			t.Fatalf("failed! len(ciclos) = %d; want 2", len(resp.Ciclos))
		}
		for _, d := range resp.Ciclos {
			switch d.Ciclo.ID {
			case cicloI.ID:
				if d.PuedeMatricularse || d.Razon != enrollment.RazonYaMatriculado {
					t.Errorf("failed! ciclo I = (%t, %q)", d.PuedeMatricularse, d.Razon)
				}
			case cicloII.ID:
				if !d.PuedeMatricularse || d.Razon != enrollment.RazonDisponible {
					t.Errorf("failed! ciclo II = (%t, %q)", d.PuedeMatricularse, d.Razon)
				}
			default:
				t.Errorf("failed! unexpected ciclo %d", d.Ciclo.ID)
			}
		}
	})
}
