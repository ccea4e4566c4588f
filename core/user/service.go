package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core"
)

var (
	// errors
	ErrNotFound    = errors.New("usuario no encontrado")
	ErrDNIExists   = errors.New("ya existe un usuario con este DNI")
	ErrEmailExists = errors.New("ya existe un usuario con este email")
)

type (
	Repository interface {
		CheckUniqueness(ctx context.Context, dni, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByDNI(ctx context.Context, dni string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByDNIOrEmail(ctx context.Context, login string) (User, error)
		QueryUsersByID(ctx context.Context, ids ...int) ([]User, error)
		// QueryUsers applies AND on the available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on DNI, names or email.
		QueryUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		SetLastLogin(ctx context.Context, usr User) error
		DeleteUsersByID(ctx context.Context, ids ...int) error
	}

	Service interface {
		checkUniqueness(ctx context.Context, dni, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByDNI(ctx context.Context, dni string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByDNIOrEmail(ctx context.Context, login string) (User, error)
		GetByIDs(ctx context.Context, ids ...int) ([]User, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) error
		Delete(ctx context.Context, ids ...int) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		log     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, log core.Logger) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		log:     log,
	}
}

func (svc *service) checkUniqueness(ctx context.Context, dni, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(ctx, dni, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrDNIExists:
			field = "dni"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		DNI:       nu.DNI,
		Email:     nu.Email,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Phone:     null.NewString(nu.Phone, nu.Phone != ""),
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch nu.Role {
	case RoleEstudiante:
		if nu.CarreraID != nil {
			usr.CarreraID = null.IntFrom(*nu.CarreraID)
		}
		usr.Direccion = null.NewString(nu.Direccion, nu.Direccion != "")
		if nu.FechaNacimiento != "" {
			fn, err := time.Parse("2006-01-02", nu.FechaNacimiento)
			if err != nil {
				return User{}, errors.Wrap(err, "parsing fecha_nacimiento")
			}
			usr.FechaNacimiento = null.TimeFrom(fn)
		}
	case RoleDocente:
		usr.Especialidad = null.NewString(nu.Especialidad, nu.Especialidad != "")
		usr.GradoAcademico = null.NewString(nu.GradoAcademico, nu.GradoAcademico != "")
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByDNI(ctx context.Context, dni string) (User, error) {
	return svc.repo.GetUserByDNI(ctx, core.CleanString(dni))
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) GetByDNIOrEmail(ctx context.Context, login string) (User, error) {
	return svc.repo.GetUserByDNIOrEmail(ctx, core.CleanString(login, true /* lower */))
}

func (svc *service) GetByIDs(ctx context.Context, ids ...int) ([]User, error) {
	return svc.repo.QueryUsersByID(ctx, ids...)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:             id,
		Email:          uu.Email,
		FirstName:      uu.FirstName,
		LastName:       uu.LastName,
		Phone:          null.NewString(uu.Phone, uu.Phone != ""),
		Direccion:      null.NewString(uu.Direccion, uu.Direccion != ""),
		Especialidad:   null.NewString(uu.Especialidad, uu.Especialidad != ""),
		GradoAcademico: null.NewString(uu.GradoAcademico, uu.GradoAcademico != ""),
		UpdatedAt:      time.Now().UTC(),
	}
	if uu.CarreraID != nil {
		usr.CarreraID = null.IntFrom(*uu.CarreraID)
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) error {
	return svc.repo.SetLastLogin(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// RequestPasswordReset emails a password reset link to the owner of the given
// email address, if an account exists.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	uid, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err := verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err := usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr, nil); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		svc.log.Error(fmt.Sprintf("%+v", errors.Wrap(err, "making password reset token")))
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      fmt.Sprintf("Restablecimiento de contraseña - %s", core.Conf.AppName),
		TemplateName: "password-reset",
		TemplateData: struct {
			FullName string
			UID      string
			Token    string
		}{usr.FullName(), EncodeUID(usr), token},
	}
	svc.mailSvc.SendMessages(msg)
}
