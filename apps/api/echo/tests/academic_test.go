package tests

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/user"
	testutil "github.com/Nicko-rgb/server-notas/tests"
)

func Test_academicApi_carreras(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, nil, true)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	t.Run("create: admin required", func(t *testing.T) {
		body := marchallObj(t, academic.NewCarrera{Nombre: "Contabilidad", Codigo: "cont", DuracionCiclos: 6})
		req, rec := newAuthRequest(http.MethodPost, "/v1/carreras", studentToken, body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	var carrera academic.Carrera
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, academic.NewCarrera{Nombre: "  Desarrollo de Software ", Codigo: "DS", DuracionCiclos: 6})
		req, rec := newAuthRequest(http.MethodPost, "/v1/carreras", adminToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &carrera); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		// input is trimmed and the codigo lowercased
		if carrera.Nombre != "Desarrollo de Software" || carrera.Codigo != "ds" {
			t.Errorf("failed! carrera = %+v", carrera)
		}
		if !carrera.IsActive {
			t.Error("failed! new carrera not active")
		}
	})
	t.Run("create: duplicate codigo", func(t *testing.T) {
		body := marchallObj(t, academic.NewCarrera{Nombre: "Otra", Codigo: "ds", DuracionCiclos: 6})
		req, rec := newAuthRequest(http.MethodPost, "/v1/carreras", adminToken, body)
		env.app.ServeHTTP(rec, req)
		wantData := marchallObj(t, map[string]string{"codigo": "ya existe una carrera con este código"})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})
	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/carreras", studentToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, carrera)}, rec)
	})
	t.Run("retrieve: unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/carreras/999", studentToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/carreras/"+strconv.Itoa(carrera.ID), studentToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, carrera)}, rec)
	})
}

func Test_academicApi_ciclos(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	adminToken := getToken(t, admin)
	carrera := testutil.CreateCarrera(t, env.academicRepo, "Desarrollo de Software", "ds", 6)

	inicio := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)

	t.Run("create: dates must be ordered", func(t *testing.T) {
		body := marchallObj(t, academic.NewCiclo{Nombre: "Ciclo I", Numero: 1, FechaInicio: fin, FechaFin: inicio, CarreraID: carrera.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/ciclos", adminToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	var ciclo academic.Ciclo
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, academic.NewCiclo{Nombre: "Ciclo I", Numero: 1, FechaInicio: inicio, FechaFin: fin, CarreraID: carrera.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/ciclos", adminToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &ciclo); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		// the academic year comes from the start date
		if ciclo.Año != 2026 {
			t.Errorf("failed! año = %d; want 2026", ciclo.Año)
		}
	})
	t.Run("create: unknown carrera", func(t *testing.T) {
		body := marchallObj(t, academic.NewCiclo{Nombre: "Ciclo II", Numero: 2, FechaInicio: inicio, FechaFin: fin, CarreraID: 999})
		req, rec := newAuthRequest(http.MethodPost, "/v1/ciclos", adminToken, body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
	t.Run("carrera ciclos", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/carreras/"+strconv.Itoa(carrera.ID)+"/ciclos", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, ciclo)}, rec)
	})
	t.Run("deactivate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/ciclos/"+strconv.Itoa(ciclo.ID)+"/deactivate", adminToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var deactivated academic.Ciclo
		if err := json.Unmarshal(rec.Body.Bytes(), &deactivated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if deactivated.IsActive {
			t.Error("failed! ciclo still active")
		}

		// inactive cycles drop out of the default listing
		req, rec = newAuthRequest(http.MethodGet, "/v1/carreras/"+strconv.Itoa(carrera.ID)+"/ciclos", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)}, rec)

		// unless all are requested
		req, rec = newAuthRequest(http.MethodGet, "/v1/carreras/"+strconv.Itoa(carrera.ID)+"/ciclos?all=1", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, deactivated)}, rec)
	})
}

func Test_academicApi_cursos(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Carlos", "Admin", "12345678", "admin@test.edu", "", user.RoleAdmin, nil, true)
	docente := testutil.CreateUser(t, env.usrRepo, "Juan", "Pérez", "87654321", "juan@test.edu", "", user.RoleDocente, nil, true)
	student := testutil.CreateUser(t, env.usrRepo, "Pedro", "López", "11223344", "pedro@test.edu", "", user.RoleEstudiante, nil, true)
	adminToken := getToken(t, admin)

	carrera := testutil.CreateCarrera(t, env.academicRepo, "Desarrollo de Software", "ds", 6)
	ciclo := testutil.CreateCiclo(t, env.academicRepo, carrera.ID, "Ciclo I", 1, true)

	var curso academic.Curso
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, academic.NewCurso{Nombre: "Fundamentos de Programación", CicloID: ciclo.ID, DocenteID: &docente.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/cursos", adminToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &curso); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !curso.DocenteID.Valid || curso.DocenteID.Int != docente.ID {
			t.Errorf("failed! docente = %v", curso.DocenteID)
		}
	})
	t.Run("create: unknown ciclo", func(t *testing.T) {
		body := marchallObj(t, academic.NewCurso{Nombre: "Otro", CicloID: 999})
		req, rec := newAuthRequest(http.MethodPost, "/v1/cursos", adminToken, body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
	t.Run("ciclo cursos", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/ciclos/"+strconv.Itoa(ciclo.ID)+"/cursos", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, curso)}, rec)
	})
	t.Run("mis-cursos: docentes only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/cursos/mis-cursos", getToken(t, student))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})
	t.Run("mis-cursos", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/cursos/mis-cursos", getToken(t, docente))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, curso)}, rec)
	})
	t.Run("unassign docente", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"docente_id": nil})
		req, rec := newAuthRequest(http.MethodPut, "/v1/cursos/"+strconv.Itoa(curso.ID)+"/docente", adminToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated academic.Curso
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if updated.DocenteID.Valid {
			t.Errorf("failed! docente still assigned: %v", updated.DocenteID)
		}
	})
}
