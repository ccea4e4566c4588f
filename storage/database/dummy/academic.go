package dummydb

import (
	"context"
	"sort"

	"github.com/Nicko-rgb/server-notas/core/academic"
)

type academicRepository struct {
	db *DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) *academicRepository {
	return &academicRepository{db: db}
}

// Carreras

func (repo *academicRepository) CreateCarrera(ctx context.Context, c academic.Carrera) (academic.Carrera, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.carreras {
		if other.Codigo == c.Codigo {
			return academic.Carrera{}, academic.ErrCodigoExists
		}
	}
	c.ID = repo.db.nextPK()
	repo.db.carreras[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) GetCarrera(ctx context.Context, id int) (academic.Carrera, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.carreras[id]; ok {
		return *c, nil
	}
	return academic.Carrera{}, academic.ErrCarreraNotFound
}

func (repo *academicRepository) QueryCarreras(ctx context.Context, activeOnly bool) ([]academic.Carrera, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	carreras := make([]academic.Carrera, 0, len(repo.db.carreras))
	for _, c := range repo.db.carreras {
		if activeOnly && !c.IsActive {
			continue
		}
		carreras = append(carreras, *c)
	}
	sort.Slice(carreras, func(i, j int) bool { return carreras[i].Nombre < carreras[j].Nombre })
	return carreras, nil
}

func (repo *academicRepository) UpdateCarrera(ctx context.Context, c academic.Carrera) (academic.Carrera, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.carreras[c.ID]; !ok {
		return academic.Carrera{}, academic.ErrCarreraNotFound
	}
	repo.db.carreras[c.ID] = &c
	return c, nil
}

// Ciclos

func (repo *academicRepository) CreateCiclo(ctx context.Context, c academic.Ciclo) (academic.Ciclo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = repo.db.nextPK()
	repo.db.ciclos[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) GetCiclo(ctx context.Context, id int) (academic.Ciclo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.ciclos[id]; ok {
		return *c, nil
	}
	return academic.Ciclo{}, academic.ErrCicloNotFound
}

func (repo *academicRepository) QueryCiclosByCarrera(ctx context.Context, carreraID int, activeOnly bool) ([]academic.Ciclo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ciclos []academic.Ciclo
	for _, c := range repo.db.ciclos {
		if c.CarreraID != carreraID {
			continue
		}
		if activeOnly && !c.IsActive {
			continue
		}
		ciclos = append(ciclos, *c)
	}
	sort.Slice(ciclos, func(i, j int) bool {
		if ciclos[i].Numero != ciclos[j].Numero {
			return ciclos[i].Numero < ciclos[j].Numero
		}
		return ciclos[i].ID < ciclos[j].ID
	})
	return ciclos, nil
}

func (repo *academicRepository) UpdateCiclo(ctx context.Context, c academic.Ciclo) (academic.Ciclo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.ciclos[c.ID]; !ok {
		return academic.Ciclo{}, academic.ErrCicloNotFound
	}
	repo.db.ciclos[c.ID] = &c
	return c, nil
}

// Cursos

func (repo *academicRepository) CreateCurso(ctx context.Context, c academic.Curso) (academic.Curso, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = repo.db.nextPK()
	repo.db.cursos[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) GetCurso(ctx context.Context, id int) (academic.Curso, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.cursos[id]; ok {
		return *c, nil
	}
	return academic.Curso{}, academic.ErrCursoNotFound
}

func (repo *academicRepository) QueryCursosByCiclo(ctx context.Context, cicloID int, activeOnly bool) ([]academic.Curso, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cursos []academic.Curso
	for _, c := range repo.db.cursos {
		if c.CicloID != cicloID {
			continue
		}
		if activeOnly && !c.IsActive {
			continue
		}
		cursos = append(cursos, *c)
	}
	sort.Slice(cursos, func(i, j int) bool { return cursos[i].Nombre < cursos[j].Nombre })
	return cursos, nil
}

func (repo *academicRepository) QueryCursosByDocente(ctx context.Context, docenteID int) ([]academic.Curso, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cursos []academic.Curso
	for _, c := range repo.db.cursos {
		if !c.DocenteID.Valid || int(c.DocenteID.Int) != docenteID || !c.IsActive {
			continue
		}
		cursos = append(cursos, *c)
	}
	sort.Slice(cursos, func(i, j int) bool { return cursos[i].Nombre < cursos[j].Nombre })
	return cursos, nil
}

func (repo *academicRepository) UpdateCurso(ctx context.Context, c academic.Curso) (academic.Curso, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.cursos[c.ID]; !ok {
		return academic.Curso{}, academic.ErrCursoNotFound
	}
	repo.db.cursos[c.ID] = &c
	return c, nil
}
