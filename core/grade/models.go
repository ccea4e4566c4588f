package grade

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

// Slot counts per category. A Record always carries the full fixed-size slot
// arrays; an unset slot is an invalid null.Float64.
const (
	NumEvaluaciones = 8
	NumPracticas    = 4
	NumParciales    = 2
)

// Estado is the academic status derived from a Record's scores.
type Estado string

const (
	EstadoPendiente   Estado = "PENDIENTE"
	EstadoEnCurso     Estado = "EN_CURSO"
	EstadoAprobado    Estado = "APROBADO"
	EstadoDesaprobado Estado = "DESAPROBADO"
)

// Record holds the raw scores of one student in one course. Storage enforces
// uniqueness on (estudiante, curso).
type Record struct {
	ID           int                           `json:"id"`
	EstudianteID int                           `json:"estudiante_id"`
	CursoID      int                           `json:"curso_id"`
	Evaluaciones [NumEvaluaciones]null.Float64 `json:"evaluaciones"`
	Practicas    [NumPracticas]null.Float64    `json:"practicas"`
	Parciales    [NumParciales]null.Float64    `json:"parciales"`

	FechaRegistro time.Time   `json:"fecha_registro"`
	Observaciones null.String `json:"observaciones"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

// Historial is one entry of the append-only score-change ledger. Entries are
// written on every slot change and never deleted.
type Historial struct {
	ID                  int          `json:"id"`
	NotaID              int          `json:"nota_id"`
	EstudianteID        int          `json:"estudiante_id"`
	CursoID             int          `json:"curso_id"`
	Campo               string       `json:"campo"` // evaluacion1..8, practica1..4, parcial1..2
	NotaAnterior        null.Float64 `json:"nota_anterior"`
	NotaNueva           null.Float64 `json:"nota_nueva"`
	MotivoCambio        string       `json:"motivo_cambio"`
	UsuarioModificacion string       `json:"usuario_modificacion"`
	FechaModificacion   time.Time    `json:"fecha_modificacion"` // UTC
}

// ActualizarNota carries a partial score update. A nil element leaves the
// corresponding slot unchanged; slices shorter than the category size only
// address the leading slots.
type ActualizarNota struct {
	Evaluaciones  []*float64 `json:"evaluaciones" validate:"omitempty,max=8,dive,omitempty,score"`
	Practicas     []*float64 `json:"practicas" validate:"omitempty,max=4,dive,omitempty,score"`
	Parciales     []*float64 `json:"parciales" validate:"omitempty,max=2,dive,omitempty,score"`
	Observaciones *string    `json:"observaciones" validate:"omitempty,max=1000"`
	MotivoCambio  string     `json:"motivo_cambio" validate:"omitempty,max=255"`
}

func (an *ActualizarNota) Validate(validate *validator.Validate, _ ut.Translator) error {
	return validate.Struct(an)
}

// EntradaBulk is one student's scores in a bulk upload for a course.
type EntradaBulk struct {
	EstudianteID int            `json:"estudiante_id" validate:"required"`
	Notas        ActualizarNota `json:"notas"`
}

// CargaBulk is the payload of a course-wide bulk score upload.
type CargaBulk struct {
	Entradas []EntradaBulk `json:"entradas" validate:"required,min=1,dive"`
}

func (cb *CargaBulk) Validate(validate *validator.Validate, _ ut.Translator) error {
	return validate.Struct(cb)
}

// ResultadoBulk reports the outcome of a bulk upload; failures never abort the
// remaining entries.
type ResultadoBulk struct {
	Procesadas   int      `json:"procesadas"`
	Creadas      int      `json:"creadas"`
	Actualizadas int      `json:"actualizadas"`
	Errores      []string `json:"errores,omitempty"`
}
