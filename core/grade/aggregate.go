package grade

import "github.com/volatiletech/null/v8"

// promedioDeFinales averages the defined final averages of a record set.
// Records without a final average are excluded from numerator and denominator
// alike; the result is undefined when no record has one.
func promedioDeFinales(records []Record) null.Float64 {
	var sum float64
	var n int
	for _, r := range records {
		if final := r.PromedioFinal(); final.Valid {
			sum += final.Float64
			n++
		}
	}
	if n == 0 {
		return null.Float64{}
	}
	return null.Float64From(round2(sum / float64(n)))
}

// PromedioCurso is the course-wide average over all students' defined final
// averages.
func PromedioCurso(records []Record) null.Float64 {
	return promedioDeFinales(records)
}

// PromedioCicloEstudiante is one student's cycle average: the simple mean of
// their defined final averages across the cycle's courses (not credit-weighted).
func PromedioCicloEstudiante(records []Record) null.Float64 {
	return promedioDeFinales(records)
}

// ContarEnRango counts defined final averages in [min, max), or >= min when no
// max is given.
func ContarEnRango(records []Record, min float64, max ...float64) int {
	var n int
	for _, r := range records {
		final := r.PromedioFinal()
		if !final.Valid {
			continue
		}
		if len(max) > 0 {
			if min <= final.Float64 && final.Float64 < max[0] {
				n++
			}
		} else if final.Float64 >= min {
			n++
		}
	}
	return n
}

// RangoConteo is one bucket of a grade distribution.
type RangoConteo struct {
	Min    float64      `json:"min"`
	Max    null.Float64 `json:"max,omitempty"` // open-ended when unset
	Conteo int          `json:"conteo"`
}

// distribucionCortes are the fixed histogram boundaries used by the dashboards.
var distribucionCortes = []float64{0, 11, 14, 18, NotaMaxima}

// Distribucion buckets defined final averages into the dashboard histogram
// ranges [0,11) [11,14) [14,18) [18,20].
func Distribucion(records []Record) []RangoConteo {
	buckets := make([]RangoConteo, 0, len(distribucionCortes)-1)
	for i := 0; i < len(distribucionCortes)-1; i++ {
		min := distribucionCortes[i]
		if i == len(distribucionCortes)-2 {
			// last bucket is closed at the top of the scale
			buckets = append(buckets, RangoConteo{Min: min, Conteo: ContarEnRango(records, min)})
			continue
		}
		max := distribucionCortes[i+1]
		buckets = append(buckets, RangoConteo{
			Min:    min,
			Max:    null.Float64From(max),
			Conteo: ContarEnRango(records, min, max),
		})
	}
	return buckets
}

// NotasEstudiante groups one enrolled student's records within a cycle. The
// record slice may be empty for students with no scores registered yet.
type NotasEstudiante struct {
	EstudianteID int
	Notas        []Record
}

// ResumenCiclo aggregates the pass/fail standing of a cycle's enrolled
// students.
type ResumenCiclo struct {
	Estudiantes  int          `json:"estudiantes"`
	Aprobados    int          `json:"aprobados"`
	Desaprobados int          `json:"desaprobados"`
	Promedio     null.Float64 `json:"promedio"`
}

// ResumirCiclo folds per-student cycle averages into the reporting tallies.
// Students without a computable cycle average count as desaprobados but do
// not contribute to the numeric average.
func ResumirCiclo(grupos []NotasEstudiante) ResumenCiclo {
	res := ResumenCiclo{Estudiantes: len(grupos)}

	var sum float64
	var conPromedio int
	for _, g := range grupos {
		promedio := PromedioCicloEstudiante(g.Notas)
		if !promedio.Valid {
			res.Desaprobados++
			continue
		}
		sum += promedio.Float64
		conPromedio++
		if promedio.Float64 >= NotaMinimaAprobacion {
			res.Aprobados++
		} else {
			res.Desaprobados++
		}
	}
	if conPromedio > 0 {
		res.Promedio = null.Float64From(round2(sum / float64(conPromedio)))
	}
	return res
}
