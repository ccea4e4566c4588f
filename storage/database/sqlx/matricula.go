package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Nicko-rgb/server-notas/core/enrollment"
)

const matriculaCols = `m.id, m.estudiante_id, m.ciclo_id, m.codigo_matricula, m.fecha_matricula,
m.estado, m.is_active, m.created_at, m.updated_at`

type matriculaRow struct {
	ID              int       `db:"id"`
	EstudianteID    int       `db:"estudiante_id"`
	CicloID         int       `db:"ciclo_id"`
	CodigoMatricula string    `db:"codigo_matricula"`
	FechaMatricula  time.Time `db:"fecha_matricula"`
	Estado          string    `db:"estado"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r matriculaRow) unmap() enrollment.Matricula {
	return enrollment.Matricula(r)
}

func unmapMatriculas(rows []matriculaRow) []enrollment.Matricula {
	ms := make([]enrollment.Matricula, 0, len(rows))
	for _, r := range rows {
		ms = append(ms, r.unmap())
	}
	return ms
}

type matriculaRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*matriculaRepository)(nil) // interface compliance check

func NewMatriculaRepository(db *sqlx.DB) *matriculaRepository {
	return &matriculaRepository{db: db}
}

func (repo *matriculaRepository) CreateMatricula(ctx context.Context, m enrollment.Matricula) (enrollment.Matricula, error) {
	const q = `
INSERT INTO matriculas (estudiante_id, ciclo_id, codigo_matricula, fecha_matricula, estado, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		m.EstudianteID, m.CicloID, m.CodigoMatricula, m.FechaMatricula, m.Estado,
		m.IsActive, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return enrollment.Matricula{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Matricula{}, errors.Wrap(err, "inserting matricula")
	}
	return m, nil
}

func (repo *matriculaRepository) GetMatricula(ctx context.Context, id int) (enrollment.Matricula, error) {
	var row matriculaRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+matriculaCols+" FROM matriculas m WHERE m.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Matricula{}, enrollment.ErrNotFound
		}
		return enrollment.Matricula{}, errors.Wrap(err, "getting matricula")
	}
	return row.unmap(), nil
}

func (repo *matriculaRepository) QueryMatriculas(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Matricula, error) {
	q := `
SELECT ` + matriculaCols + `
FROM matriculas m
JOIN users u ON u.id = m.estudiante_id
JOIN ciclos c ON c.id = m.ciclo_id`
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		conds = append(conds, "(u.first_name ILIKE ? OR u.last_name ILIKE ? OR u.dni ILIKE ?)")
		pat := "%" + filter.Search + "%"
		args = append(args, pat, pat, pat)
	}
	if filter.CicloID != nil {
		conds = append(conds, "m.ciclo_id = ?")
		args = append(args, *filter.CicloID)
	}
	if filter.Año != nil {
		conds = append(conds, "c.año = ?")
		args = append(args, *filter.Año)
	}
	if filter.Estado != "" {
		conds = append(conds, "m.estado = ?")
		args = append(args, filter.Estado)
	}
	if filter.IsActive != nil {
		conds = append(conds, "m.is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY c.numero ASC, u.last_name ASC, u.first_name ASC"

	var rows []matriculaRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying matriculas")
	}
	return unmapMatriculas(rows), nil
}

func (repo *matriculaRepository) QueryActiveByEstudiante(ctx context.Context, estudianteID int) ([]enrollment.Matricula, error) {
	const q = "SELECT " + matriculaCols + " FROM matriculas m WHERE m.estudiante_id = $1 AND m.is_active"
	var rows []matriculaRow
	if err := repo.db.SelectContext(ctx, &rows, q, estudianteID); err != nil {
		return nil, errors.Wrap(err, "querying matriculas activas")
	}
	return unmapMatriculas(rows), nil
}

func (repo *matriculaRepository) QueryByCiclo(ctx context.Context, cicloID int, activeOnly bool) ([]enrollment.Matricula, error) {
	q := "SELECT " + matriculaCols + " FROM matriculas m WHERE m.ciclo_id = $1"
	if activeOnly {
		q += " AND m.is_active"
	}
	var rows []matriculaRow
	if err := repo.db.SelectContext(ctx, &rows, q, cicloID); err != nil {
		return nil, errors.Wrap(err, "querying matriculas by ciclo")
	}
	return unmapMatriculas(rows), nil
}

func (repo *matriculaRepository) ActiveExists(ctx context.Context, estudianteID, cicloID int) (bool, error) {
	const q = "SELECT EXISTS (SELECT 1 FROM matriculas WHERE estudiante_id = $1 AND ciclo_id = $2 AND is_active)"
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, estudianteID, cicloID); err != nil {
		return false, errors.Wrap(err, "checking matricula activa")
	}
	return exists, nil
}

// DeleteMatricula removes the row for good.
func (repo *matriculaRepository) DeleteMatricula(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM matriculas WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting matricula")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}
