package enrollment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/user"
)

var (
	// errors
	ErrNotFound             = errors.New("matrícula no encontrada")
	ErrAlreadyEnrolled      = errors.New("el estudiante ya está matriculado en este ciclo")
	ErrEstudianteNotFound   = errors.New("estudiante no encontrado o inactivo")
	ErrEstudianteSinCarrera = errors.New("el estudiante no tiene carrera asignada")
	ErrCicloNotFound        = errors.New("ciclo no encontrado o inactivo")
	ErrCarreraMismatch      = errors.New("el ciclo no pertenece a la carrera del estudiante")
)

type (
	// EstudianteGetter is the slice of the user service the sequencer needs.
	EstudianteGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	// CicloStore is the slice of the academic service the sequencer needs.
	CicloStore interface {
		GetCiclo(ctx context.Context, id int) (academic.Ciclo, error)
		QueryCiclosByCarrera(ctx context.Context, carreraID int, activeOnly bool) ([]academic.Ciclo, error)
	}

	Repository interface {
		CreateMatricula(ctx context.Context, m Matricula) (Matricula, error)
		GetMatricula(ctx context.Context, id int) (Matricula, error)
		// QueryMatriculas applies AND on the available QueryFilter fields, ordered
		// by ciclo number then estudiante last name.
		QueryMatriculas(ctx context.Context, filter QueryFilter) ([]Matricula, error)
		QueryActiveByEstudiante(ctx context.Context, estudianteID int) ([]Matricula, error)
		QueryByCiclo(ctx context.Context, cicloID int, activeOnly bool) ([]Matricula, error)
		ActiveExists(ctx context.Context, estudianteID, cicloID int) (bool, error)
		DeleteMatricula(ctx context.Context, id int) error
	}

	Service struct {
		repo        Repository
		estudiantes EstudianteGetter
		ciclos      CicloStore
	}
)

func NewService(repo Repository, estudiantes EstudianteGetter, ciclos CicloStore) *Service {
	return &Service{
		repo:        repo,
		estudiantes: estudiantes,
		ciclos:      ciclos,
	}
}

// Enroll registers an estudiante in a ciclo after walking the whole
// precondition chain: the estudiante and ciclo must be active, the ciclo must
// belong to the estudiante's carrera, no prior cycle of the chain may be
// skipped, and the estudiante may not already hold the ciclo.
func (svc *Service) Enroll(ctx context.Context, nm NewMatricula) (Matricula, error) {
	est, err := svc.getEstudiante(ctx, nm.EstudianteID)
	if err != nil {
		return Matricula{}, err
	}
	if !est.CarreraID.Valid {
		return Matricula{}, ErrEstudianteSinCarrera
	}

	objetivo, err := svc.ciclos.GetCiclo(ctx, nm.CicloID)
	if err != nil {
		if errors.Cause(err) == academic.ErrCicloNotFound {
			return Matricula{}, ErrCicloNotFound
		}
		return Matricula{}, errors.Wrap(err, "getting ciclo")
	}
	if !objetivo.IsActive {
		return Matricula{}, ErrCicloNotFound
	}
	if objetivo.CarreraID != int(est.CarreraID.Int) {
		return Matricula{}, ErrCarreraMismatch
	}

	ciclosCarrera, matriculados, err := svc.progresoCarrera(ctx, est.ID, objetivo.CarreraID)
	if err != nil {
		return Matricula{}, err
	}
	if err := ValidateSequential(objetivo, ciclosCarrera, matriculados); err != nil {
		return Matricula{}, err
	}

	exists, err := svc.repo.ActiveExists(ctx, est.ID, objetivo.ID)
	if err != nil {
		return Matricula{}, errors.Wrap(err, "checking active matricula")
	}
	if exists {
		return Matricula{}, ErrAlreadyEnrolled
	}

	codigo := nm.CodigoMatricula
	if codigo == "" {
		codigo = GenerateCodigo()
	}
	now := time.Now().UTC()
	return svc.repo.CreateMatricula(ctx, Matricula{
		EstudianteID:    est.ID,
		CicloID:         objetivo.ID,
		CodigoMatricula: codigo,
		FechaMatricula:  now,
		Estado:          EstadoActiva,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// Disponibles classifies all active cycles of the estudiante's carrera by
// whether the estudiante may enroll in them.
func (svc *Service) Disponibles(ctx context.Context, estudianteID int) (user.User, []CicloDisponible, error) {
	est, err := svc.getEstudiante(ctx, estudianteID)
	if err != nil {
		return user.User{}, nil, err
	}
	if !est.CarreraID.Valid {
		return user.User{}, nil, ErrEstudianteSinCarrera
	}

	ciclosCarrera, matriculados, err := svc.progresoCarrera(ctx, est.ID, int(est.CarreraID.Int))
	if err != nil {
		return user.User{}, nil, err
	}
	return est, CiclosDisponibles(ciclosCarrera, matriculados), nil
}

func (svc *Service) Get(ctx context.Context, id int) (Matricula, error) {
	return svc.repo.GetMatricula(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Matricula, error) {
	filter.Clean()
	return svc.repo.QueryMatriculas(ctx, filter)
}

func (svc *Service) QueryByCiclo(ctx context.Context, cicloID int) ([]Matricula, error) {
	return svc.repo.QueryByCiclo(ctx, cicloID, true /* activeOnly */)
}

// Delete removes a matricula for good; there is no soft-delete here.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteMatricula(ctx, id)
}

// getEstudiante fetches an active user holding the estudiante role.
func (svc *Service) getEstudiante(ctx context.Context, id int) (user.User, error) {
	est, err := svc.estudiantes.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrEstudianteNotFound
		}
		return user.User{}, errors.Wrap(err, "getting estudiante")
	}
	if !est.IsEstudiante() || !est.IsActive {
		return user.User{}, ErrEstudianteNotFound
	}
	return est, nil
}

// progresoCarrera loads the active cycles of a carrera together with the
// cycles the estudiante actively holds in it. Held cycles resolve against the
// carrera's full cycle list, so a completed cycle that was deactivated later
// still counts toward the estudiante's progress.
func (svc *Service) progresoCarrera(ctx context.Context, estudianteID, carreraID int) (ciclosCarrera, matriculados []academic.Ciclo, err error) {
	todos, err := svc.ciclos.QueryCiclosByCarrera(ctx, carreraID, false /* activeOnly */)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying ciclos de carrera")
	}

	activas, err := svc.repo.QueryActiveByEstudiante(ctx, estudianteID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying matriculas activas")
	}

	byID := make(map[int]academic.Ciclo, len(todos))
	for _, c := range todos {
		byID[c.ID] = c
		if c.IsActive {
			ciclosCarrera = append(ciclosCarrera, c)
		}
	}
	for _, m := range activas {
		if c, ok := byID[m.CicloID]; ok {
			matriculados = append(matriculados, c)
		}
	}
	return ciclosCarrera, matriculados, nil
}

// GenerateCodigo mints an enrollment code of the form MAT-9F1C23AB.
func GenerateCodigo() string {
	return "MAT-" + strings.ToUpper(uuid.New().String()[:8])
}
