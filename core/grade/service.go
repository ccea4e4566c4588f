package grade

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound   = errors.New("nota no encontrada")
	ErrNotaExists = errors.New("el estudiante ya tiene notas registradas en este curso")
)

// Motivos registrados en el historial de cambios.
const (
	MotivoCreacion            = "CREACION"
	MotivoActualizacion       = "ACTUALIZACION"
	MotivoCreacionMasiva      = "CREACION_MASIVA"
	MotivoActualizacionMasiva = "ACTUALIZACION_MASIVA"
)

type (
	Repository interface {
		GetNota(ctx context.Context, id int) (Record, error)
		GetNotaEstudianteCurso(ctx context.Context, estudianteID, cursoID int) (Record, error)
		QueryNotasByCurso(ctx context.Context, cursoID int) ([]Record, error)
		QueryNotasByEstudiante(ctx context.Context, estudianteID int) ([]Record, error)
		// QueryNotasByEstudianteCursos restricts a student's records to the given
		// courses (typically the courses of one cycle).
		QueryNotasByEstudianteCursos(ctx context.Context, estudianteID int, cursoIDs []int) ([]Record, error)
		CreateNota(ctx context.Context, rec Record) (Record, error)
		UpdateNota(ctx context.Context, rec Record) (Record, error)
		AppendHistorial(ctx context.Context, entries ...Historial) error
		QueryHistorialByNota(ctx context.Context, notaID int) ([]Historial, error)
	}

	Service struct {
		repo    Repository
		nowFunc func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

func (svc *Service) GetByCurso(ctx context.Context, cursoID int) ([]Record, error) {
	return svc.repo.QueryNotasByCurso(ctx, cursoID)
}

func (svc *Service) GetByEstudiante(ctx context.Context, estudianteID int) ([]Record, error) {
	return svc.repo.QueryNotasByEstudiante(ctx, estudianteID)
}

func (svc *Service) GetByEstudianteCursos(ctx context.Context, estudianteID int, cursoIDs []int) ([]Record, error) {
	return svc.repo.QueryNotasByEstudianteCursos(ctx, estudianteID, cursoIDs)
}

func (svc *Service) Get(ctx context.Context, id int) (Record, error) {
	return svc.repo.GetNota(ctx, id)
}

func (svc *Service) Historial(ctx context.Context, notaID int) ([]Historial, error) {
	if _, err := svc.repo.GetNota(ctx, notaID); err != nil {
		return nil, err
	}
	return svc.repo.QueryHistorialByNota(ctx, notaID)
}

// Actualizar applies a partial score update to an existing record, appending
// one ledger entry per changed slot.
func (svc *Service) Actualizar(ctx context.Context, notaID int, data ActualizarNota, actor string) (Record, error) {
	rec, err := svc.repo.GetNota(ctx, notaID)
	if err != nil {
		return Record{}, err
	}
	return svc.save(ctx, rec, data, actor, motivoOrDefault(data.MotivoCambio, MotivoActualizacion), false)
}

// Registrar creates the (estudiante, curso) record on first score entry, or
// updates it when it already exists.
func (svc *Service) Registrar(ctx context.Context, estudianteID, cursoID int, data ActualizarNota, actor string) (Record, bool, error) {
	rec, err := svc.repo.GetNotaEstudianteCurso(ctx, estudianteID, cursoID)
	switch err {
	case nil:
		rec, err = svc.save(ctx, rec, data, actor, motivoOrDefault(data.MotivoCambio, MotivoActualizacion), false)
		return rec, false, err
	case ErrNotFound:
		now := svc.nowFunc().UTC()
		rec = Record{
			EstudianteID:  estudianteID,
			CursoID:       cursoID,
			FechaRegistro: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		rec, err = svc.save(ctx, rec, data, actor, motivoOrDefault(data.MotivoCambio, MotivoCreacion), true)
		return rec, true, err
	default:
		return Record{}, false, err
	}
}

// RegistrarBulk uploads scores for many students of a course at once. Entries
// fail independently; the result lists every failure.
func (svc *Service) RegistrarBulk(ctx context.Context, cursoID int, carga CargaBulk, actor string) (ResultadoBulk, error) {
	var res ResultadoBulk
	for _, entrada := range carga.Entradas {
		res.Procesadas++

		data := entrada.Notas
		if data.MotivoCambio == "" {
			data.MotivoCambio = MotivoActualizacionMasiva
		}
		_, created, err := svc.Registrar(ctx, entrada.EstudianteID, cursoID, data, actor)
		if err != nil {
			res.Errores = append(res.Errores, fmt.Sprintf("estudiante %d: %v", entrada.EstudianteID, err))
			continue
		}
		if created {
			res.Creadas++
		} else {
			res.Actualizadas++
		}
	}
	return res, nil
}

func (svc *Service) save(ctx context.Context, rec Record, data ActualizarNota, actor, motivo string, create bool) (Record, error) {
	now := svc.nowFunc().UTC()

	entries := applyCategoria(rec.Evaluaciones[:], data.Evaluaciones, "evaluacion", nil)
	entries = append(entries, applyCategoria(rec.Practicas[:], data.Practicas, "practica", nil)...)
	entries = append(entries, applyCategoria(rec.Parciales[:], data.Parciales, "parcial", nil)...)

	if data.Observaciones != nil {
		rec.Observaciones = null.StringFrom(*data.Observaciones)
	}
	rec.UpdatedAt = now

	var err error
	if create {
		if motivo == MotivoActualizacionMasiva {
			motivo = MotivoCreacionMasiva
		}
		rec, err = svc.repo.CreateNota(ctx, rec)
	} else {
		rec, err = svc.repo.UpdateNota(ctx, rec)
	}
	if err != nil {
		return Record{}, err
	}

	if len(entries) > 0 {
		for i := range entries {
			entries[i].NotaID = rec.ID
			entries[i].EstudianteID = rec.EstudianteID
			entries[i].CursoID = rec.CursoID
			entries[i].MotivoCambio = motivo
			entries[i].UsuarioModificacion = actor
			entries[i].FechaModificacion = now
		}
		if err := svc.repo.AppendHistorial(ctx, entries...); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// applyCategoria writes the provided slot values over the record's category
// slots and returns one ledger entry per slot that actually changed. A nil
// element leaves its slot untouched.
func applyCategoria(slots []null.Float64, vals []*float64, prefix string, entries []Historial) []Historial {
	for i, v := range vals {
		if v == nil || i >= len(slots) {
			continue
		}
		nueva := null.Float64From(*v)
		if slots[i].Valid && slots[i].Float64 == nueva.Float64 {
			continue
		}
		entries = append(entries, Historial{
			Campo:        fmt.Sprintf("%s%d", prefix, i+1),
			NotaAnterior: slots[i],
			NotaNueva:    nueva,
		})
		slots[i] = nueva
	}
	return entries
}

func motivoOrDefault(motivo, def string) string {
	if motivo == "" {
		return def
	}
	return motivo
}
