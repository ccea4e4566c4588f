package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/user"
)

type matriculaApi struct {
	svc        *enrollment.Service
	userSvc    user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerMatriculaAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *enrollment.Service,
	userSvc user.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := matriculaApi{
		svc:        svc,
		userSvc:    userSvc,
		validate:   validate,
		translator: translator,
	}

	mg := g.Group("/matriculas", jwt)
	mg.GET("", api.query, adminMiddleware())
	mg.POST("", api.enroll, adminMiddleware())
	mg.GET("/ciclo/:cicloID", api.queryByCiclo, adminMiddleware())
	mg.GET("/disponibles/:estudianteID", api.disponibles)
	mg.GET("/:id", api.retrieve, adminMiddleware())
	mg.DELETE("/:id", api.destroy, adminMiddleware())
}

// trapEnrollmentErr converts domain sentinels into HTTP errors. Every broken
// enrollment precondition surfaces as a 400 carrying the sentinel message.
func trapEnrollmentErr(err error, wrapMsg string) error {
	if seqErr, ok := errors.Cause(err).(*enrollment.SequenceError); ok {
		return core.NewValidationError(seqErr)
	}
	switch cause := errors.Cause(err); cause {
	case nil:
		return nil
	case enrollment.ErrNotFound:
		return errHttpNotFound
	case enrollment.ErrEstudianteNotFound:
		return core.NewValidationError(nil, core.FieldError{Field: "estudiante_id", Error: cause.Error()})
	case enrollment.ErrEstudianteSinCarrera:
		return core.NewValidationError(nil, core.FieldError{Field: "estudiante_id", Error: cause.Error()})
	case enrollment.ErrCicloNotFound, enrollment.ErrCarreraMismatch:
		return core.NewValidationError(nil, core.FieldError{Field: "ciclo_id", Error: cause.Error()})
	case enrollment.ErrAlreadyEnrolled:
		return core.NewValidationError(cause)
	default:
		return errors.Wrap(err, wrapMsg)
	}
}

// Handlers

func (api *matriculaApi) enroll(ctx echo.Context) error {
	var data enrollment.NewMatricula
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMatricula")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	mat, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return trapEnrollmentErr(err, "enrolling estudiante")
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *matriculaApi) query(ctx echo.Context) error {
	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Matricula{})
	}
	filter.Clean()

	mats, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying matriculas")
	}
	if mats == nil {
		mats = []enrollment.Matricula{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *matriculaApi) queryByCiclo(ctx echo.Context) error {
	cicloID, err := pathID(ctx, "cicloID")
	if err != nil {
		return err
	}
	mats, err := api.svc.QueryByCiclo(ctx.Request().Context(), cicloID)
	if err != nil {
		return errors.Wrap(err, "querying matriculas by ciclo")
	}
	if mats == nil {
		mats = []enrollment.Matricula{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

// disponibles reports, per cycle of the student's career, whether the student
// may enroll and why not. Students may only consult their own availability.
func (api *matriculaApi) disponibles(ctx echo.Context) error {
	estudianteID, err := pathID(ctx, "estudianteID")
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin() && claims.UserID() != estudianteID {
		return errHttpForbidden
	}

	est, ciclos, err := api.svc.Disponibles(ctx.Request().Context(), estudianteID)
	if err != nil {
		if errors.Cause(err) == enrollment.ErrEstudianteNotFound {
			return errHttpNotFound
		}
		return trapEnrollmentErr(err, "querying ciclos disponibles")
	}
	return ctx.JSON(http.StatusOK, DisponiblesResponse{
		EstudianteID: est.ID,
		Estudiante:   est.FullName(),
		CarreraID:    est.CarreraID.Int,
		Ciclos:       ciclos,
	})
}

func (api *matriculaApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	mat, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return trapEnrollmentErr(err, "finding matricula by ID")
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (api *matriculaApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return trapEnrollmentErr(err, "deleting matricula")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type DisponiblesResponse struct {
	EstudianteID int                          `json:"estudiante_id"`
	Estudiante   string                       `json:"estudiante"`
	CarreraID    int                          `json:"carrera_id"`
	Ciclos       []enrollment.CicloDisponible `json:"ciclos"`
}
