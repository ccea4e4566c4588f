package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core/grade"
)

const notaCols = `id, estudiante_id, curso_id,
evaluacion1, evaluacion2, evaluacion3, evaluacion4, evaluacion5, evaluacion6, evaluacion7, evaluacion8,
practica1, practica2, practica3, practica4,
parcial1, parcial2,
fecha_registro, observaciones, created_at, updated_at`

type notaRow struct {
	ID           int `db:"id"`
	EstudianteID int `db:"estudiante_id"`
	CursoID      int `db:"curso_id"`

	Evaluacion1 null.Float64 `db:"evaluacion1"`
	Evaluacion2 null.Float64 `db:"evaluacion2"`
	Evaluacion3 null.Float64 `db:"evaluacion3"`
	Evaluacion4 null.Float64 `db:"evaluacion4"`
	Evaluacion5 null.Float64 `db:"evaluacion5"`
	Evaluacion6 null.Float64 `db:"evaluacion6"`
	Evaluacion7 null.Float64 `db:"evaluacion7"`
	Evaluacion8 null.Float64 `db:"evaluacion8"`

	Practica1 null.Float64 `db:"practica1"`
	Practica2 null.Float64 `db:"practica2"`
	Practica3 null.Float64 `db:"practica3"`
	Practica4 null.Float64 `db:"practica4"`

	Parcial1 null.Float64 `db:"parcial1"`
	Parcial2 null.Float64 `db:"parcial2"`

	FechaRegistro time.Time   `db:"fecha_registro"`
	Observaciones null.String `db:"observaciones"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r notaRow) unmap() grade.Record {
	return grade.Record{
		ID:           r.ID,
		EstudianteID: r.EstudianteID,
		CursoID:      r.CursoID,
		Evaluaciones: [grade.NumEvaluaciones]null.Float64{
			r.Evaluacion1, r.Evaluacion2, r.Evaluacion3, r.Evaluacion4,
			r.Evaluacion5, r.Evaluacion6, r.Evaluacion7, r.Evaluacion8,
		},
		Practicas:     [grade.NumPracticas]null.Float64{r.Practica1, r.Practica2, r.Practica3, r.Practica4},
		Parciales:     [grade.NumParciales]null.Float64{r.Parcial1, r.Parcial2},
		FechaRegistro: r.FechaRegistro,
		Observaciones: r.Observaciones,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func unmapNotas(rows []notaRow) []grade.Record {
	recs := make([]grade.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.unmap())
	}
	return recs
}

// slotArgs flattens a record's slot arrays in column order.
func slotArgs(rec grade.Record) []interface{} {
	args := make([]interface{}, 0, grade.NumEvaluaciones+grade.NumPracticas+grade.NumParciales)
	for _, v := range rec.Evaluaciones {
		args = append(args, v)
	}
	for _, v := range rec.Practicas {
		args = append(args, v)
	}
	for _, v := range rec.Parciales {
		args = append(args, v)
	}
	return args
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return grade.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *gradeRepository) GetNota(ctx context.Context, id int) (grade.Record, error) {
	var row notaRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+notaCols+" FROM notas WHERE id = $1", id); err != nil {
		return grade.Record{}, repo.trapNoRowsErr(err, "getting nota")
	}
	return row.unmap(), nil
}

func (repo *gradeRepository) GetNotaEstudianteCurso(ctx context.Context, estudianteID, cursoID int) (grade.Record, error) {
	const q = "SELECT " + notaCols + " FROM notas WHERE estudiante_id = $1 AND curso_id = $2"
	var row notaRow
	if err := repo.db.GetContext(ctx, &row, q, estudianteID, cursoID); err != nil {
		return grade.Record{}, repo.trapNoRowsErr(err, "getting nota de estudiante")
	}
	return row.unmap(), nil
}

func (repo *gradeRepository) QueryNotasByCurso(ctx context.Context, cursoID int) ([]grade.Record, error) {
	const q = "SELECT " + notaCols + " FROM notas WHERE curso_id = $1 ORDER BY estudiante_id ASC"
	var rows []notaRow
	if err := repo.db.SelectContext(ctx, &rows, q, cursoID); err != nil {
		return nil, errors.Wrap(err, "querying notas by curso")
	}
	return unmapNotas(rows), nil
}

func (repo *gradeRepository) QueryNotasByEstudiante(ctx context.Context, estudianteID int) ([]grade.Record, error) {
	const q = "SELECT " + notaCols + " FROM notas WHERE estudiante_id = $1 ORDER BY curso_id ASC"
	var rows []notaRow
	if err := repo.db.SelectContext(ctx, &rows, q, estudianteID); err != nil {
		return nil, errors.Wrap(err, "querying notas by estudiante")
	}
	return unmapNotas(rows), nil
}

func (repo *gradeRepository) QueryNotasByEstudianteCursos(ctx context.Context, estudianteID int, cursoIDs []int) ([]grade.Record, error) {
	if len(cursoIDs) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(
		"SELECT "+notaCols+" FROM notas WHERE estudiante_id = ? AND curso_id IN (?) ORDER BY curso_id ASC",
		estudianteID, cursoIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building notas query")
	}
	var rows []notaRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying notas by estudiante y cursos")
	}
	return unmapNotas(rows), nil
}

func (repo *gradeRepository) CreateNota(ctx context.Context, rec grade.Record) (grade.Record, error) {
	const q = `
INSERT INTO notas (estudiante_id, curso_id,
                   evaluacion1, evaluacion2, evaluacion3, evaluacion4,
                   evaluacion5, evaluacion6, evaluacion7, evaluacion8,
                   practica1, practica2, practica3, practica4,
                   parcial1, parcial2,
                   fecha_registro, observaciones, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
RETURNING id`
	args := append([]interface{}{rec.EstudianteID, rec.CursoID}, slotArgs(rec)...)
	args = append(args, rec.FechaRegistro, rec.Observaciones, rec.CreatedAt, rec.UpdatedAt)

	if err := repo.db.QueryRowContext(ctx, q, args...).Scan(&rec.ID); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return grade.Record{}, grade.ErrNotaExists
		}
		return grade.Record{}, errors.Wrap(err, "inserting nota")
	}
	return rec, nil
}

func (repo *gradeRepository) UpdateNota(ctx context.Context, rec grade.Record) (grade.Record, error) {
	const q = `
UPDATE notas
SET evaluacion1 = $1, evaluacion2 = $2, evaluacion3 = $3, evaluacion4 = $4,
    evaluacion5 = $5, evaluacion6 = $6, evaluacion7 = $7, evaluacion8 = $8,
    practica1 = $9, practica2 = $10, practica3 = $11, practica4 = $12,
    parcial1 = $13, parcial2 = $14,
    observaciones = $15, updated_at = $16
WHERE id = $17`
	args := append(slotArgs(rec), rec.Observaciones, rec.UpdatedAt, rec.ID)

	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return grade.Record{}, errors.Wrap(err, "updating nota")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.Record{}, grade.ErrNotFound
	}
	return rec, nil
}

func (repo *gradeRepository) AppendHistorial(ctx context.Context, entries ...grade.Historial) error {
	if len(entries) == 0 {
		return nil
	}
	const q = `
INSERT INTO historial_notas (nota_id, estudiante_id, curso_id, campo, nota_anterior, nota_nueva,
                             motivo_cambio, usuario_modificacion, fecha_modificacion)
VALUES (:nota_id, :estudiante_id, :curso_id, :campo, :nota_anterior, :nota_nueva,
        :motivo_cambio, :usuario_modificacion, :fecha_modificacion)`
	rows := make([]historialRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, mapHistorial(e))
	}
	if _, err := repo.db.NamedExecContext(ctx, q, rows); err != nil {
		return errors.Wrap(err, "inserting historial")
	}
	return nil
}

func (repo *gradeRepository) QueryHistorialByNota(ctx context.Context, notaID int) ([]grade.Historial, error) {
	const q = `
SELECT id, nota_id, estudiante_id, curso_id, campo, nota_anterior, nota_nueva,
       motivo_cambio, usuario_modificacion, fecha_modificacion
FROM historial_notas
WHERE nota_id = $1
ORDER BY fecha_modificacion DESC, id DESC`
	var rows []historialRow
	if err := repo.db.SelectContext(ctx, &rows, q, notaID); err != nil {
		return nil, errors.Wrap(err, "querying historial")
	}
	entries := make([]grade.Historial, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, grade.Historial(r))
	}
	return entries, nil
}

type historialRow struct {
	ID                  int          `db:"id"`
	NotaID              int          `db:"nota_id"`
	EstudianteID        int          `db:"estudiante_id"`
	CursoID             int          `db:"curso_id"`
	Campo               string       `db:"campo"`
	NotaAnterior        null.Float64 `db:"nota_anterior"`
	NotaNueva           null.Float64 `db:"nota_nueva"`
	MotivoCambio        string       `db:"motivo_cambio"`
	UsuarioModificacion string       `db:"usuario_modificacion"`
	FechaModificacion   time.Time    `db:"fecha_modificacion"`
}

func mapHistorial(e grade.Historial) historialRow {
	return historialRow(e)
}
