package enrollment

import (
	"testing"

	"github.com/Nicko-rgb/server-notas/core/academic"
)

func ciclo(id int, nombre string) academic.Ciclo {
	return academic.Ciclo{ID: id, Nombre: nombre, CarreraID: 1, IsActive: true}
}

var cadena = []academic.Ciclo{
	ciclo(1, "Ciclo I"),
	ciclo(2, "Ciclo II"),
	ciclo(3, "Ciclo III"),
	ciclo(4, "Ciclo IV"),
}

func TestValidateSequential(t *testing.T) {
	tests := []struct {
		name         string
		objetivo     academic.Ciclo
		matriculados []academic.Ciclo
		wantFaltante string // empty means allowed
	}{
		{name: "primer ciclo siempre permitido", objetivo: cadena[0]},
		{name: "ciclo especial sin orden", objetivo: ciclo(9, "Electivo")},
		{
			name:         "cadena completa",
			objetivo:     cadena[2],
			matriculados: []academic.Ciclo{cadena[0], cadena[1]},
		},
		{
			name:         "falta el primer ciclo",
			objetivo:     cadena[1],
			wantFaltante: "Ciclo I",
		},
		{
			name:         "salto en medio de la cadena",
			objetivo:     cadena[3],
			matriculados: []academic.Ciclo{cadena[0], cadena[2]},
			wantFaltante: "Ciclo II",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSequential(tt.objetivo, cadena, tt.matriculados)
			if tt.wantFaltante == "" {
				if err != nil {
					t.Fatalf("ValidateSequential() error = %v, want nil", err)
				}
				return
			}
			seqErr, ok := err.(*SequenceError)
			if !ok {
				t.Fatalf("ValidateSequential() error = %v, want *SequenceError", err)
			}
			if seqErr.FaltanteNombre != tt.wantFaltante {
				t.Errorf("FaltanteNombre = %q, want %q", seqErr.FaltanteNombre, tt.wantFaltante)
			}
			if seqErr.Objetivo.ID != tt.objetivo.ID {
				t.Errorf("Objetivo.ID = %d, want %d", seqErr.Objetivo.ID, tt.objetivo.ID)
			}
		})
	}
}

func TestValidateSequentialFaltanteAnterior(t *testing.T) {
	// carrera with a hole in the chain: no cycle named II exists
	carrera := []academic.Ciclo{ciclo(1, "Ciclo I"), ciclo(3, "Ciclo III")}

	err := ValidateSequential(ciclo(3, "Ciclo III"), carrera, []academic.Ciclo{ciclo(1, "Ciclo I")})
	seqErr, ok := err.(*SequenceError)
	if !ok {
		t.Fatalf("ValidateSequential() error = %v, want *SequenceError", err)
	}
	if seqErr.FaltanteNombre != "anterior" {
		t.Errorf("FaltanteNombre = %q, want fallback %q", seqErr.FaltanteNombre, "anterior")
	}
	wantMsg := "No se puede matricular en el ciclo Ciclo III. Debe completar primero el ciclo anterior"
	if seqErr.Error() != wantMsg {
		t.Errorf("Error() = %q, want %q", seqErr.Error(), wantMsg)
	}
}

func TestCiclosDisponibles(t *testing.T) {
	carrera := append(cadena[:3:3], ciclo(9, "Electivo"))
	matriculados := []academic.Ciclo{cadena[0]}

	disp := CiclosDisponibles(carrera, matriculados)
	if len(disp) != 4 {
		t.Fatalf("CiclosDisponibles() returned %d entries, want 4", len(disp))
	}

	want := []struct {
		puede bool
		razon string
	}{
		{false, RazonYaMatriculado},
		{true, RazonDisponible},
		{false, "Debe completar primero el ciclo Ciclo II"},
		{true, RazonCicloEspecial},
	}
	for i, w := range want {
		if disp[i].PuedeMatricularse != w.puede || disp[i].Razon != w.razon {
			t.Errorf("disp[%d] (%s) = (%t, %q), want (%t, %q)",
				i, disp[i].Ciclo.Nombre, disp[i].PuedeMatricularse, disp[i].Razon, w.puede, w.razon)
		}
	}
}

func TestCiclosDisponiblesMatchesByRank(t *testing.T) {
	// the estudiante holds a cycle of a previous year; the rank counts, not the row
	carrera := []academic.Ciclo{ciclo(10, "Ciclo I"), ciclo(11, "Ciclo II")}
	matriculados := []academic.Ciclo{ciclo(3, "Ciclo I")} // different ID, same rank

	disp := CiclosDisponibles(carrera, matriculados)
	if disp[0].Razon != RazonYaMatriculado {
		t.Errorf("disp[0].Razon = %q, want %q", disp[0].Razon, RazonYaMatriculado)
	}
	if !disp[1].PuedeMatricularse || disp[1].Razon != RazonDisponible {
		t.Errorf("disp[1] = (%t, %q), want open", disp[1].PuedeMatricularse, disp[1].Razon)
	}
}
