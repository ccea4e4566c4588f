package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/academic"
)

type academicApi struct {
	svc        *academic.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAcademicAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *academic.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := academicApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	cg := g.Group("/carreras", jwt)
	cg.POST("", api.createCarrera, adminMiddleware())
	cg.GET("", api.queryCarreras)
	cg.GET("/:id", api.retrieveCarrera)
	cg.GET("/:id/ciclos", api.queryCiclos)

	ccg := g.Group("/ciclos", jwt)
	ccg.POST("", api.createCiclo, adminMiddleware())
	ccg.GET("/:id", api.retrieveCiclo)
	ccg.POST("/:id/deactivate", api.deactivateCiclo, adminMiddleware())
	ccg.GET("/:id/cursos", api.queryCursos)

	crg := g.Group("/cursos", jwt)
	crg.POST("", api.createCurso, adminMiddleware())
	crg.GET("/mis-cursos", api.queryMisCursos, docenteMiddleware())
	crg.GET("/:id", api.retrieveCurso)
	crg.PUT("/:id/docente", api.assignDocente, adminMiddleware())
}

// trapAcademicErr converts domain sentinels into HTTP errors.
func trapAcademicErr(err error, wrapMsg string) error {
	switch errors.Cause(err) {
	case nil:
		return nil
	case academic.ErrCarreraNotFound, academic.ErrCicloNotFound, academic.ErrCursoNotFound:
		return errHttpNotFound
	case academic.ErrCodigoExists:
		return core.NewValidationError(nil, core.FieldError{Field: "codigo", Error: academic.ErrCodigoExists.Error()})
	default:
		return errors.Wrap(err, wrapMsg)
	}
}

func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Handlers

func (api *academicApi) createCarrera(ctx echo.Context) error {
	var data academic.NewCarrera
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCarrera")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	carrera, err := api.svc.CreateCarrera(ctx.Request().Context(), data)
	if err != nil {
		return trapAcademicErr(err, "creating carrera")
	}
	return ctx.JSON(http.StatusCreated, carrera)
}

func (api *academicApi) queryCarreras(ctx echo.Context) error {
	activeOnly := ctx.QueryParam("all") == ""
	carreras, err := api.svc.QueryCarreras(ctx.Request().Context(), activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying carreras")
	}
	if carreras == nil {
		carreras = []academic.Carrera{}
	}
	return ctx.JSON(http.StatusOK, carreras)
}

func (api *academicApi) retrieveCarrera(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	carrera, err := api.svc.GetCarrera(ctx.Request().Context(), id)
	if err != nil {
		return trapAcademicErr(err, "finding carrera by ID")
	}
	return ctx.JSON(http.StatusOK, carrera)
}

func (api *academicApi) queryCiclos(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if _, err = api.svc.GetCarrera(ctx.Request().Context(), id); err != nil {
		return trapAcademicErr(err, "finding carrera by ID")
	}

	activeOnly := ctx.QueryParam("all") == ""
	ciclos, err := api.svc.QueryCiclosByCarrera(ctx.Request().Context(), id, activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying ciclos")
	}
	if ciclos == nil {
		ciclos = []academic.Ciclo{}
	}
	return ctx.JSON(http.StatusOK, ciclos)
}

func (api *academicApi) createCiclo(ctx echo.Context) error {
	var data academic.NewCiclo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCiclo")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	ciclo, err := api.svc.CreateCiclo(ctx.Request().Context(), data)
	if err != nil {
		return trapAcademicErr(err, "creating ciclo")
	}
	return ctx.JSON(http.StatusCreated, ciclo)
}

func (api *academicApi) retrieveCiclo(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	ciclo, err := api.svc.GetCiclo(ctx.Request().Context(), id)
	if err != nil {
		return trapAcademicErr(err, "finding ciclo by ID")
	}
	return ctx.JSON(http.StatusOK, ciclo)
}

func (api *academicApi) deactivateCiclo(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	ciclo, err := api.svc.DeactivateCiclo(ctx.Request().Context(), id)
	if err != nil {
		return trapAcademicErr(err, "deactivating ciclo")
	}
	return ctx.JSON(http.StatusOK, ciclo)
}

func (api *academicApi) queryCursos(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if _, err = api.svc.GetCiclo(ctx.Request().Context(), id); err != nil {
		return trapAcademicErr(err, "finding ciclo by ID")
	}

	activeOnly := ctx.QueryParam("all") == ""
	cursos, err := api.svc.QueryCursosByCiclo(ctx.Request().Context(), id, activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying cursos")
	}
	if cursos == nil {
		cursos = []academic.Curso{}
	}
	return ctx.JSON(http.StatusOK, cursos)
}

func (api *academicApi) createCurso(ctx echo.Context) error {
	var data academic.NewCurso
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCurso")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	curso, err := api.svc.CreateCurso(ctx.Request().Context(), data)
	if err != nil {
		return trapAcademicErr(err, "creating curso")
	}
	return ctx.JSON(http.StatusCreated, curso)
}

func (api *academicApi) retrieveCurso(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	curso, err := api.svc.GetCurso(ctx.Request().Context(), id)
	if err != nil {
		return trapAcademicErr(err, "finding curso by ID")
	}
	return ctx.JSON(http.StatusOK, curso)
}

func (api *academicApi) queryMisCursos(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	cursos, err := api.svc.QueryCursosByDocente(ctx.Request().Context(), claims.UserID())
	if err != nil {
		return errors.Wrap(err, "querying cursos by docente")
	}
	if cursos == nil {
		cursos = []academic.Curso{}
	}
	return ctx.JSON(http.StatusOK, cursos)
}

func (api *academicApi) assignDocente(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data AssignDocenteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignDocenteRequest")
	}

	curso, err := api.svc.AssignDocente(ctx.Request().Context(), id, data.DocenteID)
	if err != nil {
		return trapAcademicErr(err, "assigning docente")
	}
	return ctx.JSON(http.StatusOK, curso)
}

type AssignDocenteRequest struct {
	DocenteID *int `json:"docente_id"` // nil unassigns
}
