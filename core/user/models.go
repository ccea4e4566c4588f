package user

import (
	"context"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nicko-rgb/server-notas/core"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleDocente    = "docente"
	RoleEstudiante = "estudiante"
)

var AllRoles = []string{RoleAdmin, RoleDocente, RoleEstudiante}

// rolePriorities orders roles by how much they are allowed to do.
var rolePriorities = map[string]int{
	RoleAdmin:      3,
	RoleDocente:    2,
	RoleEstudiante: 1,
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

type User struct {
	ID        int         `json:"id"`
	DNI       string      `json:"dni"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Phone     null.String `json:"phone"`
	Role      string      `json:"role"`

	// estudiante-only attributes
	CarreraID       null.Int    `json:"carrera_id"`
	FechaNacimiento null.Time   `json:"fecha_nacimiento"`
	Direccion       null.String `json:"direccion"`

	// docente-only attributes
	Especialidad   null.String `json:"especialidad"`
	GradoAcademico null.String `json:"grado_academico"`

	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u *User) IsDocente() bool    { return u.Role == RoleDocente }
func (u *User) IsEstudiante() bool { return u.Role == RoleEstudiante }

// NewUser contains information needed to create a new User.
type NewUser struct {
	DNI             string `json:"dni" validate:"required,dni"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"required,max=60"`
	LastName        string `json:"last_name" validate:"required,max=60"`
	Phone           string `json:"phone" validate:"omitempty,max=15"`
	Role            string `json:"role" validate:"required,role"`
	CarreraID       *int   `json:"carrera_id"`
	FechaNacimiento string `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02"`
	Direccion       string `json:"direccion" validate:"omitempty,max=200"`
	Especialidad    string `json:"especialidad" validate:"omitempty,max=100"`
	GradoAcademico  string `json:"grado_academico" validate:"omitempty,max=100"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, _ ut.Translator, svc Service) error {
	nu.DNI = core.CleanString(nu.DNI)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Phone = core.CleanString(nu.Phone)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.DNI, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Email           string `json:"email" validate:"omitempty,email"`
	FirstName       string `json:"first_name" validate:"omitempty,max=60"`
	LastName        string `json:"last_name" validate:"omitempty,max=60"`
	Phone           string `json:"phone" validate:"omitempty,max=15"`
	IsActive        *bool  `json:"is_active"`
	CarreraID       *int   `json:"carrera_id"`
	Direccion       string `json:"direccion" validate:"omitempty,max=200"`
	Especialidad    string `json:"especialidad" validate:"omitempty,max=100"`
	GradoAcademico  string `json:"grado_academico" validate:"omitempty,max=100"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, _ ut.Translator, svc Service) error {
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if first := core.CleanString(uu.FirstName); first != "" {
		uu.FirstName = first
	} else {
		uu.FirstName = origUsr.FirstName
	}
	if last := core.CleanString(uu.LastName); last != "" {
		uu.LastName = last
	} else {
		uu.LastName = origUsr.LastName
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, origUsr.DNI, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate, _ ut.Translator) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	CarreraID   *int      `query:"carrera_id"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.CarreraID == nil && qf.IsActive == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
