package academic

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrCarreraNotFound = errors.New("carrera no encontrada")
	ErrCicloNotFound   = errors.New("ciclo no encontrado")
	ErrCursoNotFound   = errors.New("curso no encontrado")
	ErrCodigoExists    = errors.New("ya existe una carrera con este código")
)

type (
	Repository interface {
		CreateCarrera(ctx context.Context, c Carrera) (Carrera, error)
		GetCarrera(ctx context.Context, id int) (Carrera, error)
		QueryCarreras(ctx context.Context, activeOnly bool) ([]Carrera, error)
		UpdateCarrera(ctx context.Context, c Carrera) (Carrera, error)

		CreateCiclo(ctx context.Context, c Ciclo) (Ciclo, error)
		GetCiclo(ctx context.Context, id int) (Ciclo, error)
		QueryCiclosByCarrera(ctx context.Context, carreraID int, activeOnly bool) ([]Ciclo, error)
		UpdateCiclo(ctx context.Context, c Ciclo) (Ciclo, error)

		CreateCurso(ctx context.Context, c Curso) (Curso, error)
		GetCurso(ctx context.Context, id int) (Curso, error)
		QueryCursosByCiclo(ctx context.Context, cicloID int, activeOnly bool) ([]Curso, error)
		QueryCursosByDocente(ctx context.Context, docenteID int) ([]Curso, error)
		UpdateCurso(ctx context.Context, c Curso) (Curso, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateCarrera(ctx context.Context, nc NewCarrera) (Carrera, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCarrera(ctx, Carrera{
		Nombre:         nc.Nombre,
		Codigo:         nc.Codigo,
		Descripcion:    null.NewString(nc.Descripcion, nc.Descripcion != ""),
		DuracionCiclos: nc.DuracionCiclos,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) GetCarrera(ctx context.Context, id int) (Carrera, error) {
	return svc.repo.GetCarrera(ctx, id)
}

func (svc *Service) QueryCarreras(ctx context.Context, activeOnly bool) ([]Carrera, error) {
	return svc.repo.QueryCarreras(ctx, activeOnly)
}

func (svc *Service) CreateCiclo(ctx context.Context, nc NewCiclo) (Ciclo, error) {
	if _, err := svc.repo.GetCarrera(ctx, nc.CarreraID); err != nil {
		return Ciclo{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateCiclo(ctx, Ciclo{
		Nombre:      nc.Nombre,
		Numero:      nc.Numero,
		Año:         nc.FechaInicio.Year(),
		Descripcion: null.NewString(nc.Descripcion, nc.Descripcion != ""),
		FechaInicio: nc.FechaInicio,
		FechaFin:    nc.FechaFin,
		CarreraID:   nc.CarreraID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetCiclo(ctx context.Context, id int) (Ciclo, error) {
	return svc.repo.GetCiclo(ctx, id)
}

func (svc *Service) QueryCiclosByCarrera(ctx context.Context, carreraID int, activeOnly bool) ([]Ciclo, error) {
	return svc.repo.QueryCiclosByCarrera(ctx, carreraID, activeOnly)
}

func (svc *Service) CreateCurso(ctx context.Context, nc NewCurso) (Curso, error) {
	if _, err := svc.repo.GetCiclo(ctx, nc.CicloID); err != nil {
		return Curso{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateCurso(ctx, Curso{
		Nombre:      nc.Nombre,
		Descripcion: null.NewString(nc.Descripcion, nc.Descripcion != ""),
		CicloID:     nc.CicloID,
		DocenteID:   null.IntFromPtr(nc.DocenteID),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetCurso(ctx context.Context, id int) (Curso, error) {
	return svc.repo.GetCurso(ctx, id)
}

func (svc *Service) QueryCursosByCiclo(ctx context.Context, cicloID int, activeOnly bool) ([]Curso, error) {
	return svc.repo.QueryCursosByCiclo(ctx, cicloID, activeOnly)
}

func (svc *Service) QueryCursosByDocente(ctx context.Context, docenteID int) ([]Curso, error) {
	return svc.repo.QueryCursosByDocente(ctx, docenteID)
}

// AssignDocente assigns (or clears) the teacher of a course.
func (svc *Service) AssignDocente(ctx context.Context, cursoID int, docenteID *int) (Curso, error) {
	curso, err := svc.repo.GetCurso(ctx, cursoID)
	if err != nil {
		return Curso{}, err
	}
	curso.DocenteID = null.IntFromPtr(docenteID)
	curso.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCurso(ctx, curso)
}

// Deactivate flips a cycle inactive; inactive cycles stop appearing in
// enrollment availability listings.
func (svc *Service) DeactivateCiclo(ctx context.Context, id int) (Ciclo, error) {
	ciclo, err := svc.repo.GetCiclo(ctx, id)
	if err != nil {
		return Ciclo{}, err
	}
	ciclo.IsActive = false
	ciclo.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCiclo(ctx, ciclo)
}
