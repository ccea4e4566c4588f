package enrollment

import (
	"fmt"

	"github.com/Nicko-rgb/server-notas/core/academic"
)

// availability reasons
const (
	RazonCicloEspecial = "Ciclo especial"
	RazonYaMatriculado = "Ya matriculado en este ciclo"
	RazonDisponible    = "Disponible para matrícula"
)

// SequenceError reports a broken prerequisite chain: the estudiante wants
// Objetivo but has never held FaltanteNombre. FaltanteNombre is "anterior"
// when the carrera has no cycle at the missing rank.
type SequenceError struct {
	Objetivo       academic.Ciclo
	FaltanteNombre string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("No se puede matricular en el ciclo %s. Debe completar primero el ciclo %s",
		e.Objetivo.Nombre, e.FaltanteNombre)
}

// razonFaltante is the availability wording for a broken chain.
func razonFaltante(faltante string) string {
	return fmt.Sprintf("Debe completar primero el ciclo %s", faltante)
}

// rankSet collapses the given cycles to the set of sequence ranks they cover.
// Unranked cycles (rank 0) are ignored.
func rankSet(ciclos []academic.Ciclo) map[int]bool {
	set := make(map[int]bool, len(ciclos))
	for _, c := range ciclos {
		if r := CicloRank(c.Nombre); r > 0 {
			set[r] = true
		}
	}
	return set
}

// faltanteNombre finds the name of the carrera cycle holding the given rank,
// falling back to "anterior" when none does.
func faltanteNombre(ciclosCarrera []academic.Ciclo, rank int) string {
	for _, c := range ciclosCarrera {
		if CicloRank(c.Nombre) == rank {
			return c.Nombre
		}
	}
	return "anterior"
}

// ValidateSequential checks that enrolling in objetivo would not skip any cycle
// of the chain: every rank below the objetivo's must be covered by one of the
// estudiante's held cycles. Unranked objetivos and rank I always pass.
// matriculados are the cycles of the estudiante's active enrollments in the
// same carrera.
func ValidateSequential(objetivo academic.Ciclo, ciclosCarrera, matriculados []academic.Ciclo) error {
	ordenObjetivo := CicloRank(objetivo.Nombre)
	if ordenObjetivo <= 1 {
		return nil
	}

	held := rankSet(matriculados)
	for orden := 1; orden < ordenObjetivo; orden++ {
		if !held[orden] {
			return &SequenceError{
				Objetivo:       objetivo,
				FaltanteNombre: faltanteNombre(ciclosCarrera, orden),
			}
		}
	}
	return nil
}

// CiclosDisponibles classifies every carrera cycle for an estudiante:
// unranked cycles are always open, cycles whose rank the estudiante already
// holds are closed as duplicates, and ranked cycles are open only when the
// whole chain below them is held.
func CiclosDisponibles(ciclosCarrera, matriculados []academic.Ciclo) []CicloDisponible {
	held := rankSet(matriculados)

	disponibles := make([]CicloDisponible, 0, len(ciclosCarrera))
	for _, ciclo := range ciclosCarrera {
		disp := CicloDisponible{Ciclo: ciclo}
		orden := CicloRank(ciclo.Nombre)

		switch {
		case orden == 0:
			disp.PuedeMatricularse = true
			disp.Razon = RazonCicloEspecial
		case held[orden]:
			disp.Razon = RazonYaMatriculado
		default:
			disp.PuedeMatricularse = true
			disp.Razon = RazonDisponible
			for req := 1; req < orden; req++ {
				if !held[req] {
					disp.PuedeMatricularse = false
					disp.Razon = razonFaltante(faltanteNombre(ciclosCarrera, req))
					break
				}
			}
		}
		disponibles = append(disponibles, disp)
	}
	return disponibles
}
