package grade_test

import (
	"context"
	"testing"

	"github.com/Nicko-rgb/server-notas/core/grade"
	dummydb "github.com/Nicko-rgb/server-notas/storage/database/dummy"
)

func fptr(v float64) *float64 { return &v }

func newSvc(t *testing.T) (*grade.Service, grade.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("newSvc() failed: %v", err)
	}
	repo := dummydb.NewGradeRepository(db)
	return grade.NewService(repo), repo
}

func TestServiceRegistrar(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()

	data := grade.ActualizarNota{
		Evaluaciones: []*float64{fptr(15), fptr(16)},
		Parciales:    []*float64{fptr(14)},
	}
	rec, created, err := svc.Registrar(ctx, 1, 10, data, "99887766")
	if err != nil {
		t.Fatalf("Registrar() failed: %v", err)
	}
	if !created {
		t.Error("Registrar() created = false, want true on first entry")
	}
	if got := rec.Evaluaciones[1]; !got.Valid || got.Float64 != 16 {
		t.Errorf("Evaluaciones[1] = %v, want 16", got)
	}

	// creation wrote one ledger entry per filled slot
	entries, err := svc.Historial(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Historial() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Historial() returned %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.MotivoCambio != grade.MotivoCreacion {
			t.Errorf("MotivoCambio = %q, want %q", e.MotivoCambio, grade.MotivoCreacion)
		}
		if e.UsuarioModificacion != "99887766" {
			t.Errorf("UsuarioModificacion = %q, want %q", e.UsuarioModificacion, "99887766")
		}
	}

	// second call updates the same record
	rec2, created, err := svc.Registrar(ctx, 1, 10, grade.ActualizarNota{Parciales: []*float64{nil, fptr(12)}}, "99887766")
	if err != nil {
		t.Fatalf("Registrar() failed: %v", err)
	}
	if created {
		t.Error("Registrar() created = true, want false on second entry")
	}
	if rec2.ID != rec.ID {
		t.Errorf("Registrar() record ID = %d, want %d", rec2.ID, rec.ID)
	}
	if got := rec2.Parciales[0]; !got.Valid || got.Float64 != 14 {
		t.Errorf("Parciales[0] = %v, want untouched 14", got)
	}
}

func TestServiceActualizarLedger(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()

	rec, _, err := svc.Registrar(ctx, 1, 10, grade.ActualizarNota{Evaluaciones: []*float64{fptr(10)}}, "doc")
	if err != nil {
		t.Fatalf("Registrar() failed: %v", err)
	}

	// same value: no new ledger entry
	if _, err = svc.Actualizar(ctx, rec.ID, grade.ActualizarNota{Evaluaciones: []*float64{fptr(10)}}, "doc"); err != nil {
		t.Fatalf("Actualizar() failed: %v", err)
	}
	entries, _ := svc.Historial(ctx, rec.ID)
	if len(entries) != 1 {
		t.Fatalf("Historial() returned %d entries, want 1 (unchanged slot)", len(entries))
	}

	// changed value: one entry holding old and new scores, newest first
	if _, err = svc.Actualizar(ctx, rec.ID, grade.ActualizarNota{
		Evaluaciones: []*float64{fptr(17)},
		MotivoCambio: "corrección de examen",
	}, "doc"); err != nil {
		t.Fatalf("Actualizar() failed: %v", err)
	}
	entries, _ = svc.Historial(ctx, rec.ID)
	if len(entries) != 2 {
		t.Fatalf("Historial() returned %d entries, want 2", len(entries))
	}
	last := entries[0]
	if last.Campo != "evaluacion1" {
		t.Errorf("Campo = %q, want evaluacion1", last.Campo)
	}
	if !last.NotaAnterior.Valid || last.NotaAnterior.Float64 != 10 {
		t.Errorf("NotaAnterior = %v, want 10", last.NotaAnterior)
	}
	if !last.NotaNueva.Valid || last.NotaNueva.Float64 != 17 {
		t.Errorf("NotaNueva = %v, want 17", last.NotaNueva)
	}
	if last.MotivoCambio != "corrección de examen" {
		t.Errorf("MotivoCambio = %q, want the provided motivo", last.MotivoCambio)
	}
}

func TestServiceActualizarNotFound(t *testing.T) {
	svc, _ := newSvc(t)
	_, err := svc.Actualizar(context.Background(), 404, grade.ActualizarNota{}, "doc")
	if err != grade.ErrNotFound {
		t.Errorf("Actualizar() error = %v, want %v", err, grade.ErrNotFound)
	}
}

func TestServiceRegistrarBulk(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()

	// pre-existing record for estudiante 1
	if _, _, err := svc.Registrar(ctx, 1, 10, grade.ActualizarNota{Evaluaciones: []*float64{fptr(10)}}, "doc"); err != nil {
		t.Fatalf("Registrar() failed: %v", err)
	}

	carga := grade.CargaBulk{Entradas: []grade.EntradaBulk{
		{EstudianteID: 1, Notas: grade.ActualizarNota{Evaluaciones: []*float64{fptr(12)}}},
		{EstudianteID: 2, Notas: grade.ActualizarNota{Practicas: []*float64{fptr(14)}}},
	}}
	res, err := svc.RegistrarBulk(ctx, 10, carga, "doc")
	if err != nil {
		t.Fatalf("RegistrarBulk() failed: %v", err)
	}
	if res.Procesadas != 2 || res.Creadas != 1 || res.Actualizadas != 1 {
		t.Errorf("RegistrarBulk() = %+v, want procesadas=2 creadas=1 actualizadas=1", res)
	}
	if len(res.Errores) != 0 {
		t.Errorf("RegistrarBulk() errores = %v, want none", res.Errores)
	}

	rec, err := svc.GetByEstudianteCursos(ctx, 2, []int{10})
	if err != nil || len(rec) != 1 {
		t.Fatalf("GetByEstudianteCursos() = %v, %v", rec, err)
	}
	entries, _ := svc.Historial(ctx, rec[0].ID)
	if len(entries) != 1 || entries[0].MotivoCambio != grade.MotivoCreacionMasiva {
		t.Errorf("bulk creation motivo = %v, want %q", entries, grade.MotivoCreacionMasiva)
	}
}
