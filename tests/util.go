package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/user"
)

// Setup points core.Conf at a test configuration. Safe to call from every
// TestMain; the first call wins.
func Setup() {
	if core.Conf != nil && core.Conf.TestMode {
		return
	}
	core.Conf = &core.Config{
		TestMode:                  true,
		Env:                       "TEST",
		AppName:                   "Server Notas",
		SecretKey:                 []byte("secret"),
		WorkDir:                   findWorkDir(),
		FrontendBaseURL:           "http://localhost:5173",
		DefaultFromEmail:          "noreply@sistema.edu",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func findWorkDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	first, last, dni, email, pwd, role string,
	carreraID *int,
	isActive bool,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		DNI:       dni,
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if carreraID != nil {
		usr.CarreraID = null.IntFrom(*carreraID)
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCarrera(t *testing.T, repo academic.Repository, nombre, codigo string, duracion int) academic.Carrera {
	t.Helper()
	now := time.Now().UTC()
	carrera, err := repo.CreateCarrera(context.Background(), academic.Carrera{
		Nombre:         nombre,
		Codigo:         codigo,
		DuracionCiclos: duracion,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateCarrera() failed: %v", err)
	}
	return carrera
}

func CreateCiclo(t *testing.T, repo academic.Repository, carreraID int, nombre string, numero int, isActive bool) academic.Ciclo {
	t.Helper()
	now := time.Now().UTC()
	ciclo, err := repo.CreateCiclo(context.Background(), academic.Ciclo{
		Nombre:      nombre,
		Numero:      numero,
		Año:         now.Year(),
		FechaInicio: now,
		FechaFin:    now.AddDate(0, 4, 0),
		CarreraID:   carreraID,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateCiclo() failed: %v", err)
	}
	return ciclo
}

func CreateCurso(t *testing.T, repo academic.Repository, cicloID int, nombre string, docenteID *int) academic.Curso {
	t.Helper()
	now := time.Now().UTC()
	curso := academic.Curso{
		Nombre:    nombre,
		CicloID:   cicloID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if docenteID != nil {
		curso.DocenteID = null.IntFrom(*docenteID)
	}
	curso, err := repo.CreateCurso(context.Background(), curso)
	if err != nil {
		t.Fatalf("CreateCurso() failed: %v", err)
	}
	return curso
}

func CreateMatricula(t *testing.T, repo enrollment.Repository, estudianteID, cicloID int) enrollment.Matricula {
	t.Helper()
	now := time.Now().UTC()
	mat, err := repo.CreateMatricula(context.Background(), enrollment.Matricula{
		EstudianteID:    estudianteID,
		CicloID:         cicloID,
		CodigoMatricula: enrollment.GenerateCodigo(),
		FechaMatricula:  now,
		Estado:          enrollment.EstadoActiva,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateMatricula() failed: %v", err)
	}
	return mat
}

func IntPtr(v int) *int { return &v }
