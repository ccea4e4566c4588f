package academic

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core"
)

// Carrera is a study program made of ordered cycles.
type Carrera struct {
	ID             int         `json:"id"`
	Nombre         string      `json:"nombre"`
	Codigo         string      `json:"codigo"`
	Descripcion    null.String `json:"descripcion"`
	DuracionCiclos int         `json:"duracion_ciclos"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
	UpdatedAt      time.Time   `json:"updated_at"` // UTC
}

// Ciclo is one academic term of a career. Nombre is expected to carry a roman
// numeral (I-X) signaling the term's sequence; Numero is the explicit sequence
// number used for display ordering and may disagree with the name.
type Ciclo struct {
	ID          int         `json:"id"`
	Nombre      string      `json:"nombre"`
	Numero      int         `json:"numero"`
	Año         int         `json:"año"`
	Descripcion null.String `json:"descripcion"`
	FechaInicio time.Time   `json:"fecha_inicio"`
	FechaFin    time.Time   `json:"fecha_fin"`
	CarreraID   int         `json:"carrera_id"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// Curso belongs to exactly one cycle and may be assigned to one teacher.
// Grades reference courses directly, never cycles.
type Curso struct {
	ID          int         `json:"id"`
	Nombre      string      `json:"nombre"`
	Descripcion null.String `json:"descripcion"`
	CicloID     int         `json:"ciclo_id"`
	DocenteID   null.Int    `json:"docente_id"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// NewCarrera contains information needed to create a new Carrera.
type NewCarrera struct {
	Nombre         string `json:"nombre" validate:"required,max=100"`
	Codigo         string `json:"codigo" validate:"required,max=10"`
	Descripcion    string `json:"descripcion" validate:"omitempty"`
	DuracionCiclos int    `json:"duracion_ciclos" validate:"required,min=1,max=10"`
}

func (nc *NewCarrera) Validate(validate *validator.Validate, _ ut.Translator) error {
	nc.Nombre = core.CleanString(nc.Nombre)
	nc.Codigo = core.CleanString(nc.Codigo, true /* lower */)
	return validate.Struct(nc)
}

// NewCiclo contains information needed to create a new Ciclo.
type NewCiclo struct {
	Nombre      string    `json:"nombre" validate:"required,max=100"`
	Numero      int       `json:"numero" validate:"required,min=1,max=10"`
	Descripcion string    `json:"descripcion" validate:"omitempty"`
	FechaInicio time.Time `json:"fecha_inicio" validate:"required"`
	FechaFin    time.Time `json:"fecha_fin" validate:"required,gtfield=FechaInicio"`
	CarreraID   int       `json:"carrera_id" validate:"required"`
}

func (nc *NewCiclo) Validate(validate *validator.Validate, _ ut.Translator) error {
	nc.Nombre = core.CleanString(nc.Nombre)
	return validate.Struct(nc)
}

// NewCurso contains information needed to create a new Curso.
type NewCurso struct {
	Nombre      string `json:"nombre" validate:"required,max=100"`
	Descripcion string `json:"descripcion" validate:"omitempty"`
	CicloID     int    `json:"ciclo_id" validate:"required"`
	DocenteID   *int   `json:"docente_id" validate:"omitempty"`
}

func (nc *NewCurso) Validate(validate *validator.Validate, _ ut.Translator) error {
	nc.Nombre = core.CleanString(nc.Nombre)
	return validate.Struct(nc)
}
