package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/grade"
	"github.com/Nicko-rgb/server-notas/core/user"
)

type notasApi struct {
	svc         *grade.Service
	academicSvc *academic.Service
	userSvc     user.Service
	validate    *validator.Validate
	translator  ut.Translator
}

func registerNotasAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *grade.Service,
	academicSvc *academic.Service,
	userSvc user.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := notasApi{
		svc:         svc,
		academicSvc: academicSvc,
		userSvc:     userSvc,
		validate:    validate,
		translator:  translator,
	}

	ng := g.Group("/notas", jwt)
	ng.GET("/mis-notas", api.queryMisNotas, roleMiddleware(user.RoleEstudiante))
	ng.GET("/cursos/:cursoID", api.queryByCurso, docenteMiddleware())
	ng.POST("/cursos/:cursoID/estudiantes/:estudianteID", api.registrar, docenteMiddleware())
	ng.POST("/cursos/:cursoID/bulk", api.registrarBulk, docenteMiddleware())
	ng.PUT("/:id", api.actualizar, docenteMiddleware())
	ng.GET("/:id/historial", api.historial, docenteMiddleware())
}

// NotaDetail is a Record plus its derived averages and academic status.
type NotaDetail struct {
	grade.Record
	PromedioEvaluaciones float64      `json:"promedio_evaluaciones"`
	PromedioPracticas    float64      `json:"promedio_practicas"`
	PromedioParciales    float64      `json:"promedio_parciales"`
	PromedioFinal        null.Float64 `json:"promedio_final"`
	Estado               grade.Estado `json:"estado"`
}

func newNotaDetail(rec grade.Record) NotaDetail {
	return NotaDetail{
		Record:               rec,
		PromedioEvaluaciones: rec.PromedioEvaluaciones(),
		PromedioPracticas:    rec.PromedioPracticas(),
		PromedioParciales:    rec.PromedioParciales(),
		PromedioFinal:        rec.PromedioFinal(),
		Estado:               rec.Estado(),
	}
}

func newNotaDetails(recs []grade.Record) []NotaDetail {
	details := make([]NotaDetail, len(recs))
	for i, rec := range recs {
		details[i] = newNotaDetail(rec)
	}
	return details
}

// checkCursoAccess lets admins through and docentes only for courses assigned
// to them.
func (api *notasApi) checkCursoAccess(ctx echo.Context, cursoID int) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin() {
		return nil
	}

	curso, err := api.academicSvc.GetCurso(ctx.Request().Context(), cursoID)
	if err != nil {
		return trapAcademicErr(err, "finding curso by ID")
	}
	if curso.DocenteID.Valid && curso.DocenteID.Int == claims.UserID() {
		return nil
	}
	return errHttpForbidden
}

// Handlers

func (api *notasApi) queryByCurso(ctx echo.Context) error {
	cursoID, err := pathID(ctx, "cursoID")
	if err != nil {
		return err
	}
	if err := api.checkCursoAccess(ctx, cursoID); err != nil {
		return err
	}

	recs, err := api.svc.GetByCurso(ctx.Request().Context(), cursoID)
	if err != nil {
		return errors.Wrap(err, "querying notas by curso")
	}
	return ctx.JSON(http.StatusOK, newNotaDetails(recs))
}

func (api *notasApi) registrar(ctx echo.Context) error {
	cursoID, err := pathID(ctx, "cursoID")
	if err != nil {
		return err
	}
	estudianteID, err := pathID(ctx, "estudianteID")
	if err != nil {
		return err
	}
	if err := api.checkCursoAccess(ctx, cursoID); err != nil {
		return err
	}

	var data grade.ActualizarNota
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActualizarNota")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, created, err := api.svc.Registrar(ctx.Request().Context(), estudianteID, cursoID, data, claims.DNI)
	if err != nil {
		if errors.Cause(err) == grade.ErrNotaExists {
			return core.NewValidationError(grade.ErrNotaExists)
		}
		return errors.Wrap(err, "registering nota")
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, newNotaDetail(rec))
}

func (api *notasApi) registrarBulk(ctx echo.Context) error {
	cursoID, err := pathID(ctx, "cursoID")
	if err != nil {
		return err
	}
	if err := api.checkCursoAccess(ctx, cursoID); err != nil {
		return err
	}

	var carga grade.CargaBulk
	if err := ctx.Bind(&carga); err != nil {
		return errors.Wrap(err, "binding to CargaBulk")
	}
	if err := carga.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.RegistrarBulk(ctx.Request().Context(), cursoID, carga, claims.DNI)
	if err != nil {
		return errors.Wrap(err, "bulk registering notas")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *notasApi) actualizar(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	rec, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding nota by ID")
	}
	if err := api.checkCursoAccess(ctx, rec.CursoID); err != nil {
		return err
	}

	var data grade.ActualizarNota
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActualizarNota")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err = api.svc.Actualizar(ctx.Request().Context(), id, data, claims.DNI)
	if err != nil {
		return errors.Wrap(err, "updating nota")
	}
	return ctx.JSON(http.StatusOK, newNotaDetail(rec))
}

func (api *notasApi) historial(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	rec, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding nota by ID")
	}
	if err := api.checkCursoAccess(ctx, rec.CursoID); err != nil {
		return err
	}

	entries, err := api.svc.Historial(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying historial")
	}
	if entries == nil {
		entries = []grade.Historial{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *notasApi) queryMisNotas(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recs, err := api.svc.GetByEstudiante(ctx.Request().Context(), claims.UserID())
	if err != nil {
		return errors.Wrap(err, "querying notas by estudiante")
	}
	return ctx.JSON(http.StatusOK, newNotaDetails(recs))
}
