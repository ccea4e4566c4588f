package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/Nicko-rgb/server-notas/core/enrollment"
)

type matriculaRepository struct {
	db *DB
}

var _ enrollment.Repository = (*matriculaRepository)(nil) // interface compliance check

func NewMatriculaRepository(db *DB) *matriculaRepository {
	return &matriculaRepository{db: db}
}

func (repo *matriculaRepository) CreateMatricula(ctx context.Context, m enrollment.Matricula) (enrollment.Matricula, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.matriculas {
		if other.EstudianteID == m.EstudianteID && other.CicloID == m.CicloID && other.IsActive {
			return enrollment.Matricula{}, enrollment.ErrAlreadyEnrolled
		}
	}
	m.ID = repo.db.nextPK()
	repo.db.matriculas[m.ID] = &m
	return m, nil
}

func (repo *matriculaRepository) GetMatricula(ctx context.Context, id int) (enrollment.Matricula, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.matriculas[id]; ok {
		return *m, nil
	}
	return enrollment.Matricula{}, enrollment.ErrNotFound
}

func (repo *matriculaRepository) QueryMatriculas(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Matricula, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	match := func(m enrollment.Matricula) bool {
		if filter.Search != "" {
			usr, ok := repo.db.users[m.EstudianteID]
			if !ok {
				return false
			}
			s := strings.ToLower(filter.Search)
			if !(strings.Contains(strings.ToLower(usr.FirstName), s) ||
				strings.Contains(strings.ToLower(usr.LastName), s) ||
				strings.Contains(strings.ToLower(usr.DNI), s)) {
				return false
			}
		}
		if filter.CicloID != nil && m.CicloID != *filter.CicloID {
			return false
		}
		if filter.Año != nil {
			ciclo, ok := repo.db.ciclos[m.CicloID]
			if !ok || ciclo.Año != *filter.Año {
				return false
			}
		}
		if filter.Estado != "" && m.Estado != filter.Estado {
			return false
		}
		if filter.IsActive != nil && m.IsActive != *filter.IsActive {
			return false
		}
		return true
	}

	var ms []enrollment.Matricula
	for _, m := range repo.db.matriculas {
		if match(*m) {
			ms = append(ms, *m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	return ms, nil
}

func (repo *matriculaRepository) QueryActiveByEstudiante(ctx context.Context, estudianteID int) ([]enrollment.Matricula, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ms []enrollment.Matricula
	for _, m := range repo.db.matriculas {
		if m.EstudianteID == estudianteID && m.IsActive {
			ms = append(ms, *m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	return ms, nil
}

func (repo *matriculaRepository) QueryByCiclo(ctx context.Context, cicloID int, activeOnly bool) ([]enrollment.Matricula, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ms []enrollment.Matricula
	for _, m := range repo.db.matriculas {
		if m.CicloID != cicloID {
			continue
		}
		if activeOnly && !m.IsActive {
			continue
		}
		ms = append(ms, *m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	return ms, nil
}

func (repo *matriculaRepository) ActiveExists(ctx context.Context, estudianteID, cicloID int) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, m := range repo.db.matriculas {
		if m.EstudianteID == estudianteID && m.CicloID == cicloID && m.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (repo *matriculaRepository) DeleteMatricula(ctx context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.matriculas[id]; !ok {
		return enrollment.ErrNotFound
	}
	delete(repo.db.matriculas, id)
	return nil
}
