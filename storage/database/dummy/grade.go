package dummydb

import (
	"context"
	"sort"

	"github.com/Nicko-rgb/server-notas/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) GetNota(ctx context.Context, id int) (grade.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.notas[id]; ok {
		return *rec, nil
	}
	return grade.Record{}, grade.ErrNotFound
}

func (repo *gradeRepository) GetNotaEstudianteCurso(ctx context.Context, estudianteID, cursoID int) (grade.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.db.notas {
		if rec.EstudianteID == estudianteID && rec.CursoID == cursoID {
			return *rec, nil
		}
	}
	return grade.Record{}, grade.ErrNotFound
}

func (repo *gradeRepository) QueryNotasByCurso(ctx context.Context, cursoID int) ([]grade.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []grade.Record
	for _, rec := range repo.db.notas {
		if rec.CursoID == cursoID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].EstudianteID < recs[j].EstudianteID })
	return recs, nil
}

func (repo *gradeRepository) QueryNotasByEstudiante(ctx context.Context, estudianteID int) ([]grade.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []grade.Record
	for _, rec := range repo.db.notas {
		if rec.EstudianteID == estudianteID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CursoID < recs[j].CursoID })
	return recs, nil
}

func (repo *gradeRepository) QueryNotasByEstudianteCursos(ctx context.Context, estudianteID int, cursoIDs []int) ([]grade.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[int]bool, len(cursoIDs))
	for _, id := range cursoIDs {
		wanted[id] = true
	}

	var recs []grade.Record
	for _, rec := range repo.db.notas {
		if rec.EstudianteID == estudianteID && wanted[rec.CursoID] {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CursoID < recs[j].CursoID })
	return recs, nil
}

func (repo *gradeRepository) CreateNota(ctx context.Context, rec grade.Record) (grade.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.notas {
		if other.EstudianteID == rec.EstudianteID && other.CursoID == rec.CursoID {
			return grade.Record{}, grade.ErrNotaExists
		}
	}
	rec.ID = repo.db.nextPK()
	repo.db.notas[rec.ID] = &rec
	return rec, nil
}

func (repo *gradeRepository) UpdateNota(ctx context.Context, rec grade.Record) (grade.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.notas[rec.ID]; !ok {
		return grade.Record{}, grade.ErrNotFound
	}
	repo.db.notas[rec.ID] = &rec
	return rec, nil
}

func (repo *gradeRepository) AppendHistorial(ctx context.Context, entries ...grade.Historial) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, e := range entries {
		e.ID = repo.db.nextPK()
		repo.db.historial = append(repo.db.historial, e)
	}
	return nil
}

func (repo *gradeRepository) QueryHistorialByNota(ctx context.Context, notaID int) ([]grade.Historial, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var entries []grade.Historial
	for _, e := range repo.db.historial {
		if e.NotaID == notaID {
			entries = append(entries, e)
		}
	}
	// newest first, like the SQL repo
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].FechaModificacion.Equal(entries[j].FechaModificacion) {
			return entries[i].FechaModificacion.After(entries[j].FechaModificacion)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}
