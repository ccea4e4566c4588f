package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core/academic"
)

const (
	carreraCols = `id, nombre, codigo, descripcion, duracion_ciclos, is_active, created_at, updated_at`
	cicloCols   = `id, nombre, numero, año, descripcion, fecha_inicio, fecha_fin, carrera_id, is_active, created_at, updated_at`
	cursoCols   = `id, nombre, descripcion, ciclo_id, docente_id, is_active, created_at, updated_at`
)

type (
	carreraRow struct {
		ID             int         `db:"id"`
		Nombre         string      `db:"nombre"`
		Codigo         string      `db:"codigo"`
		Descripcion    null.String `db:"descripcion"`
		DuracionCiclos int         `db:"duracion_ciclos"`
		IsActive       bool        `db:"is_active"`
		CreatedAt      time.Time   `db:"created_at"`
		UpdatedAt      time.Time   `db:"updated_at"`
	}

	cicloRow struct {
		ID          int         `db:"id"`
		Nombre      string      `db:"nombre"`
		Numero      int         `db:"numero"`
		Año         int         `db:"año"`
		Descripcion null.String `db:"descripcion"`
		FechaInicio time.Time   `db:"fecha_inicio"`
		FechaFin    time.Time   `db:"fecha_fin"`
		CarreraID   int         `db:"carrera_id"`
		IsActive    bool        `db:"is_active"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	cursoRow struct {
		ID          int         `db:"id"`
		Nombre      string      `db:"nombre"`
		Descripcion null.String `db:"descripcion"`
		CicloID     int         `db:"ciclo_id"`
		DocenteID   null.Int    `db:"docente_id"`
		IsActive    bool        `db:"is_active"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}
)

func (r carreraRow) unmap() academic.Carrera {
	return academic.Carrera(r)
}

func (r cicloRow) unmap() academic.Ciclo {
	return academic.Ciclo(r)
}

func (r cursoRow) unmap() academic.Curso {
	return academic.Curso(r)
}

type academicRepository struct {
	db *sqlx.DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *sqlx.DB) *academicRepository {
	return &academicRepository{db: db}
}

// Carreras

func (repo *academicRepository) CreateCarrera(ctx context.Context, c academic.Carrera) (academic.Carrera, error) {
	const q = `
INSERT INTO carreras (nombre, codigo, descripcion, duracion_ciclos, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		c.Nombre, c.Codigo, c.Descripcion, c.DuracionCiclos, c.IsActive, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return academic.Carrera{}, academic.ErrCodigoExists
		}
		return academic.Carrera{}, errors.Wrap(err, "inserting carrera")
	}
	return c, nil
}

func (repo *academicRepository) GetCarrera(ctx context.Context, id int) (academic.Carrera, error) {
	var row carreraRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+carreraCols+" FROM carreras WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return academic.Carrera{}, academic.ErrCarreraNotFound
		}
		return academic.Carrera{}, errors.Wrap(err, "getting carrera")
	}
	return row.unmap(), nil
}

func (repo *academicRepository) QueryCarreras(ctx context.Context, activeOnly bool) ([]academic.Carrera, error) {
	q := "SELECT " + carreraCols + " FROM carreras"
	if activeOnly {
		q += " WHERE is_active"
	}
	q += " ORDER BY nombre ASC"

	var rows []carreraRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying carreras")
	}
	carreras := make([]academic.Carrera, 0, len(rows))
	for _, r := range rows {
		carreras = append(carreras, r.unmap())
	}
	return carreras, nil
}

func (repo *academicRepository) UpdateCarrera(ctx context.Context, c academic.Carrera) (academic.Carrera, error) {
	const q = `
UPDATE carreras
SET nombre = $1, codigo = $2, descripcion = $3, duracion_ciclos = $4, is_active = $5, updated_at = $6
WHERE id = $7`
	res, err := repo.db.ExecContext(ctx, q,
		c.Nombre, c.Codigo, c.Descripcion, c.DuracionCiclos, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return academic.Carrera{}, academic.ErrCodigoExists
		}
		return academic.Carrera{}, errors.Wrap(err, "updating carrera")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.Carrera{}, academic.ErrCarreraNotFound
	}
	return c, nil
}

// Ciclos

func (repo *academicRepository) CreateCiclo(ctx context.Context, c academic.Ciclo) (academic.Ciclo, error) {
	const q = `
INSERT INTO ciclos (nombre, numero, año, descripcion, fecha_inicio, fecha_fin, carrera_id, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		c.Nombre, c.Numero, c.Año, c.Descripcion, c.FechaInicio, c.FechaFin, c.CarreraID,
		c.IsActive, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return academic.Ciclo{}, errors.Wrap(err, "inserting ciclo")
	}
	return c, nil
}

func (repo *academicRepository) GetCiclo(ctx context.Context, id int) (academic.Ciclo, error) {
	var row cicloRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+cicloCols+" FROM ciclos WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return academic.Ciclo{}, academic.ErrCicloNotFound
		}
		return academic.Ciclo{}, errors.Wrap(err, "getting ciclo")
	}
	return row.unmap(), nil
}

func (repo *academicRepository) QueryCiclosByCarrera(ctx context.Context, carreraID int, activeOnly bool) ([]academic.Ciclo, error) {
	q := "SELECT " + cicloCols + " FROM ciclos WHERE carrera_id = $1"
	if activeOnly {
		q += " AND is_active"
	}
	q += " ORDER BY numero ASC, id ASC"

	var rows []cicloRow
	if err := repo.db.SelectContext(ctx, &rows, q, carreraID); err != nil {
		return nil, errors.Wrap(err, "querying ciclos")
	}
	ciclos := make([]academic.Ciclo, 0, len(rows))
	for _, r := range rows {
		ciclos = append(ciclos, r.unmap())
	}
	return ciclos, nil
}

func (repo *academicRepository) UpdateCiclo(ctx context.Context, c academic.Ciclo) (academic.Ciclo, error) {
	const q = `
UPDATE ciclos
SET nombre = $1, numero = $2, año = $3, descripcion = $4, fecha_inicio = $5, fecha_fin = $6,
    carrera_id = $7, is_active = $8, updated_at = $9
WHERE id = $10`
	res, err := repo.db.ExecContext(ctx, q,
		c.Nombre, c.Numero, c.Año, c.Descripcion, c.FechaInicio, c.FechaFin,
		c.CarreraID, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		return academic.Ciclo{}, errors.Wrap(err, "updating ciclo")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.Ciclo{}, academic.ErrCicloNotFound
	}
	return c, nil
}

// Cursos

func (repo *academicRepository) CreateCurso(ctx context.Context, c academic.Curso) (academic.Curso, error) {
	const q = `
INSERT INTO cursos (nombre, descripcion, ciclo_id, docente_id, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		c.Nombre, c.Descripcion, c.CicloID, c.DocenteID, c.IsActive, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return academic.Curso{}, errors.Wrap(err, "inserting curso")
	}
	return c, nil
}

func (repo *academicRepository) GetCurso(ctx context.Context, id int) (academic.Curso, error) {
	var row cursoRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+cursoCols+" FROM cursos WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return academic.Curso{}, academic.ErrCursoNotFound
		}
		return academic.Curso{}, errors.Wrap(err, "getting curso")
	}
	return row.unmap(), nil
}

func (repo *academicRepository) QueryCursosByCiclo(ctx context.Context, cicloID int, activeOnly bool) ([]academic.Curso, error) {
	q := "SELECT " + cursoCols + " FROM cursos WHERE ciclo_id = $1"
	if activeOnly {
		q += " AND is_active"
	}
	q += " ORDER BY nombre ASC"

	var rows []cursoRow
	if err := repo.db.SelectContext(ctx, &rows, q, cicloID); err != nil {
		return nil, errors.Wrap(err, "querying cursos")
	}
	cursos := make([]academic.Curso, 0, len(rows))
	for _, r := range rows {
		cursos = append(cursos, r.unmap())
	}
	return cursos, nil
}

func (repo *academicRepository) QueryCursosByDocente(ctx context.Context, docenteID int) ([]academic.Curso, error) {
	const q = "SELECT " + cursoCols + " FROM cursos WHERE docente_id = $1 AND is_active ORDER BY nombre ASC"
	var rows []cursoRow
	if err := repo.db.SelectContext(ctx, &rows, q, docenteID); err != nil {
		return nil, errors.Wrap(err, "querying cursos by docente")
	}
	cursos := make([]academic.Curso, 0, len(rows))
	for _, r := range rows {
		cursos = append(cursos, r.unmap())
	}
	return cursos, nil
}

func (repo *academicRepository) UpdateCurso(ctx context.Context, c academic.Curso) (academic.Curso, error) {
	const q = `
UPDATE cursos
SET nombre = $1, descripcion = $2, ciclo_id = $3, docente_id = $4, is_active = $5, updated_at = $6
WHERE id = $7`
	res, err := repo.db.ExecContext(ctx, q,
		c.Nombre, c.Descripcion, c.CicloID, c.DocenteID, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		return academic.Curso{}, errors.Wrap(err, "updating curso")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.Curso{}, academic.ErrCursoNotFound
	}
	return c, nil
}
