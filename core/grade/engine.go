package grade

import (
	"math"

	"github.com/volatiletech/null/v8"
)

// Pesos del promedio final. Deben sumar 1.00 exactamente.
const (
	PesoEvaluaciones = 0.10
	PesoPracticas    = 0.30
	PesoParciales    = 0.60

	// NotaMinimaAprobacion is the fixed passing threshold on the 0-20 scale;
	// it is a system constant, not configurable per course or career.
	NotaMinimaAprobacion = 13.0
	NotaMaxima           = 20.0
)

// round2 rounds to 2 decimal places, half away from zero. Every average in the
// engine goes through it so all call sites round identically.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PromedioCategoria averages the slots that hold a value strictly greater than
// zero. When no slot qualifies the average is 0, which downstream reads as
// "no data".
//
// NOTE: a recorded score of exactly 0 is indistinguishable from an unset slot
// here. This mirrors the registry's historical behavior; whether an earned
// zero should count is pending product clarification.
func PromedioCategoria(slots []null.Float64) float64 {
	var sum float64
	var n int
	for _, s := range slots {
		if s.Valid && s.Float64 > 0 {
			sum += s.Float64
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func (r Record) PromedioEvaluaciones() float64 { return PromedioCategoria(r.Evaluaciones[:]) }
func (r Record) PromedioPracticas() float64    { return PromedioCategoria(r.Practicas[:]) }
func (r Record) PromedioParciales() float64    { return PromedioCategoria(r.Parciales[:]) }

// PromedioFinal computes the weighted final average. It is only defined when
// every category has at least one qualifying score; a strong partial record
// still yields no final average (there is no partial-weight renormalization).
func (r Record) PromedioFinal() null.Float64 {
	pe := r.PromedioEvaluaciones()
	pp := r.PromedioPracticas()
	px := r.PromedioParciales()
	if pe > 0 && pp > 0 && px > 0 {
		return null.Float64From(round2(pe*PesoEvaluaciones + pp*PesoPracticas + px*PesoParciales))
	}
	return null.Float64{}
}

// TieneNotas reports whether the record holds at least one qualifying score in
// any category.
func (r Record) TieneNotas() bool {
	return r.PromedioEvaluaciones() > 0 || r.PromedioPracticas() > 0 || r.PromedioParciales() > 0
}

// Estado classifies the record:
//   - no qualifying scores at all          -> PENDIENTE
//   - some scores but no final average yet -> EN_CURSO
//   - final average >= 13                  -> APROBADO
//   - final average < 13                   -> DESAPROBADO
func (r Record) Estado() Estado {
	final := r.PromedioFinal()
	if !final.Valid {
		if r.TieneNotas() {
			return EstadoEnCurso
		}
		return EstadoPendiente
	}
	if final.Float64 >= NotaMinimaAprobacion {
		return EstadoAprobado
	}
	return EstadoDesaprobado
}
