package enrollment

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/academic"
)

// Matricula estados
const (
	EstadoActiva   = "activa"
	EstadoRetirada = "retirada"
	EstadoCompleta = "completada"
)

// Matricula binds one estudiante to one ciclo. The (estudiante, ciclo)
// pair is unique while the matricula is active.
type Matricula struct {
	ID              int       `json:"id"`
	EstudianteID    int       `json:"estudiante_id"`
	CicloID         int       `json:"ciclo_id"`
	CodigoMatricula string    `json:"codigo_matricula"`
	FechaMatricula  time.Time `json:"fecha_matricula"`
	Estado          string    `json:"estado"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// NewMatricula contains information needed to enroll an estudiante in a ciclo.
// CodigoMatricula is optional; one is generated when absent.
type NewMatricula struct {
	EstudianteID    int    `json:"estudiante_id" validate:"required"`
	CicloID         int    `json:"ciclo_id" validate:"required"`
	CodigoMatricula string `json:"codigo_matricula" validate:"omitempty,max=20"`
}

func (nm *NewMatricula) Validate(validate *validator.Validate, _ ut.Translator) error {
	nm.CodigoMatricula = core.CleanString(nm.CodigoMatricula)
	return validate.Struct(nm)
}

// CicloDisponible reports whether an estudiante may enroll in a ciclo and why not.
type CicloDisponible struct {
	Ciclo             academic.Ciclo `json:"ciclo"`
	PuedeMatricularse bool           `json:"puede_matricularse"`
	Razon             string         `json:"razon"`
}

type QueryFilter struct {
	Search   string `query:"search"`
	CicloID  *int   `query:"ciclo_id"`
	Año      *int   `query:"año"`
	Estado   string `query:"estado"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Estado = core.CleanString(qf.Estado, true /* lower */)
}
