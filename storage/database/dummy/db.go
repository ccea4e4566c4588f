package dummydb

import (
	"sync"

	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/grade"
	"github.com/Nicko-rgb/server-notas/core/user"
)

// DB is a mutex-guarded in-memory store used in tests and local hacking.
type DB struct {
	mutex sync.RWMutex
	pk    int

	users      map[int]*user.User
	carreras   map[int]*academic.Carrera
	ciclos     map[int]*academic.Ciclo
	cursos     map[int]*academic.Curso
	matriculas map[int]*enrollment.Matricula
	notas      map[int]*grade.Record
	historial  []grade.Historial
}

func Open() (*DB, error) {
	db := &DB{
		users:      make(map[int]*user.User),
		carreras:   make(map[int]*academic.Carrera),
		ciclos:     make(map[int]*academic.Ciclo),
		cursos:     make(map[int]*academic.Curso),
		matriculas: make(map[int]*enrollment.Matricula),
		notas:      make(map[int]*grade.Record),
	}
	return db, nil
}

// nextPK assumes db.mutex is held.
func (db *DB) nextPK() int {
	db.pk++
	return db.pk
}
